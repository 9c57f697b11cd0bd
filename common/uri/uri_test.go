package uri

import (
	"testing"

	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in        string
		bucket    string
		key       string
		region    string
		version   string
		endpoint  string
		pathStyle bool
		prefix    bool
	}{
		{in: "cos://testbucket/people.parquet", bucket: "testbucket", key: "people.parquet"},
		{in: "cos://testbucket", bucket: "testbucket", prefix: true},
		{in: "cos://testbucket/", bucket: "testbucket", prefix: true},
		{in: "s3://bkt/dir/sub/", bucket: "bkt", key: "dir/sub/", prefix: true},
		{in: "mem://bkt/a%20b.csv", bucket: "bkt", key: "a%20b.csv"},
		{in: "cos://b/100%.csv", bucket: "b", key: "100%.csv"},
		{in: "cos://b/a?b.csv", bucket: "b", key: "a?b.csv"},
		{in: "S3A://b/dir/#1 draft.csv", bucket: "b", key: "dir/#1 draft.csv"},
		{in: "cos://bkt/key?versionId=v%201", bucket: "bkt", key: "key", version: "v 1"},
		{in: "cos://bkt/a?b.csv?versionId=7", bucket: "bkt", key: "a?b.csv", version: "7"},
		{in: "cos://bkt?versionId=7", bucket: "bkt", version: "7", prefix: true},
		{
			in:     "https://bkt.cos.us-south.cloud-object-storage.appdomain.cloud/people.csv",
			bucket: "bkt", key: "people.csv", region: "us-south",
			endpoint: "cos.us-south.cloud-object-storage.appdomain.cloud",
		},
		{
			in:     "https://cos.eu-de.example.cloud/bkt/dir%2Fx/people.csv?a=1;versionId=42",
			bucket: "bkt", key: "dir/x/people.csv", region: "eu-de", version: "42",
			endpoint: "cos.eu-de.example.cloud", pathStyle: true,
		},
		{
			in: "https://s3.amazonaws.com/bkt/obj", bucket: "bkt", key: "obj",
			endpoint: "s3.amazonaws.com", pathStyle: true,
		},
		{
			in: "https://bkt.s3.us-east-1.amazonaws.com/", bucket: "bkt", region: "us-east-1",
			endpoint: "s3.us-east-1.amazonaws.com", prefix: true,
		},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			u, err := Parse(c.in)
			require.NoError(t, err)
			assert.Equal(t, c.bucket, u.Bucket)
			assert.Equal(t, c.key, u.Key)
			assert.Equal(t, c.region, u.Region)
			assert.Equal(t, c.version, u.VersionID)
			assert.Equal(t, c.endpoint, u.Endpoint)
			assert.Equal(t, c.pathStyle, u.PathStyle)
			assert.Equal(t, c.prefix, u.IsPrefix())
			assert.Equal(t, c.in, u.String())
		})
	}
}

func TestParseFile(t *testing.T) {
	u, err := Parse("file:///tmp/people.parquet")
	require.NoError(t, err)
	assert.Equal(t, "file", u.Scheme)
	assert.Equal(t, "", u.Bucket)
	assert.Equal(t, "/tmp/people.parquet", u.Key)
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{
		"",
		"cos:///people.parquet",
		"ftp://bkt/obj",
		"https://example.com/bkt/obj",
		"https://cos.us-south.example.cloud/",
		"https://cos.us-south.example.cloud/bkt/%zz",
	} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, serrors.ErrInvalidURI, in)
	}
}
