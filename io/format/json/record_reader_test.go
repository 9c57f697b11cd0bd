package json

import (
	"strings"
	"testing"

	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/minio/spark-select/go/common/utils"
	"github.com/minio/spark-select/go/storage/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func peopleSchema() *schema.Schema {
	return schema.NewSchema(
		schema.NewField("name", schema.String, true),
		schema.NewField("age", schema.Int, false),
		schema.NewField("score", schema.Double, true),
	)
}

func TestRecordReader(t *testing.T) {
	input := `{"name":"Alice","age":30,"score":1.5,"extra":[1]}
{"name":"Bob","age":"15"}

{"name":null,"age":40,"score":2}
`
	r := NewRecordReader(strings.NewReader(input), peopleSchema(), 2)
	defer r.Release()

	require.True(t, r.Next())
	rec := r.Record()
	assert.Equal(t, int64(2), rec.NumRows())
	assert.Equal(t, "Alice", utils.ValueAt(rec.Column(0), 0))
	assert.Equal(t, int32(15), utils.ValueAt(rec.Column(1), 1))
	assert.Nil(t, utils.ValueAt(rec.Column(2), 1))

	require.True(t, r.Next())
	rec = r.Record()
	assert.Equal(t, int64(1), rec.NumRows())
	assert.Nil(t, utils.ValueAt(rec.Column(0), 0))
	assert.Equal(t, 2.0, utils.ValueAt(rec.Column(2), 0))

	assert.False(t, r.Next())
	assert.NoError(t, r.Err())
	assert.Equal(t, int64(3), r.Rows())
}

func TestRecordReaderEmpty(t *testing.T) {
	r := NewRecordReader(strings.NewReader("\n"), peopleSchema(), 10)
	defer r.Release()
	assert.False(t, r.Next())
	assert.NoError(t, r.Err())
}

func TestRecordReaderErrors(t *testing.T) {
	r := NewRecordReader(strings.NewReader(`{"name":"Carol"}`), peopleSchema(), 10)
	assert.False(t, r.Next())
	assert.ErrorIs(t, r.Err(), serrors.ErrNullViolation)
	r.Release()

	r = NewRecordReader(strings.NewReader(`{"age":"old"}`), peopleSchema(), 10)
	assert.False(t, r.Next())
	assert.ErrorIs(t, r.Err(), serrors.ErrSchemaNotMatch)
	r.Release()

	r = NewRecordReader(strings.NewReader(`{"age": }`+"\n"), peopleSchema(), 10)
	assert.False(t, r.Next())
	assert.Error(t, r.Err())
	r.Release()
}

func TestEmptyAsNull(t *testing.T) {
	r := NewRecordReader(strings.NewReader(`{"name":"","age":1,"score":""}`), peopleSchema(), 10, WithEmptyAsNull())
	defer r.Release()
	require.True(t, r.Next())
	assert.Nil(t, utils.ValueAt(r.Record().Column(0), 0))
	assert.Nil(t, utils.ValueAt(r.Record().Column(2), 0))
}
