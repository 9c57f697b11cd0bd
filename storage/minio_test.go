package storage_test

import (
	"context"
	"os"
	"path"
	"testing"

	"github.com/minio/spark-select/go/common/uri"
	"github.com/minio/spark-select/go/common/utils"
	"github.com/minio/spark-select/go/config"
	"github.com/minio/spark-select/go/io/fs"
	"github.com/minio/spark-select/go/storage"
	"github.com/minio/spark-select/go/storage/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMinioSelect runs the people scenario against a real MinIO server with
// Select support.
func TestMinioSelect(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_ENDPOINT not set")
	}
	bucket := os.Getenv("MINIO_BUCKET")
	if bucket == "" {
		bucket = "testbucket"
	}
	ctx := context.Background()
	cfg := config.Default()
	cfg.S3.Endpoint = endpoint
	cfg.S3.Insecure = true
	cfg.Log.Level = "warn"

	u, err := uri.Parse("s3://" + bucket + "/")
	require.NoError(t, err)
	m, err := fs.NewMinioFs(u, cfg)
	require.NoError(t, err)
	key := utils.GetNewParquetFilePath(path.Base(t.TempDir()))
	require.NoError(t, writePeople(ctx, m, key, []any{"Alice", "Bob"}, []int32{30, 15}))
	defer m.DeleteFile(ctx, key)

	session, err := storage.NewSession(storage.WithConfig(cfg))
	require.NoError(t, err)
	defer session.Close()
	sc, err := schema.ParseDDL("name string, age int not null")
	require.NoError(t, err)

	for _, pushdown := range []string{"true", "false"} {
		ds, err := session.Read().Format("minioSelectParquet").Option("pushdown", pushdown).Schema(sc).Load(ctx, "s3://"+bucket+"/"+key)
		require.NoError(t, err)
		adults, err := ds.FilterExpr("age > 19")
		require.NoError(t, err)
		rows, err := adults.Collect(ctx)
		require.NoError(t, err)
		assert.Equal(t, []storage.Row{{"Alice", int32(30)}}, rows, "pushdown=%s", pushdown)
	}
}
