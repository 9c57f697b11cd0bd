package json

import (
	"io"
	"sync/atomic"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	jsoniter "github.com/json-iterator/go"
	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/minio/spark-select/go/common/utils"
	"github.com/minio/spark-select/go/storage/schema"
	"github.com/pkg/errors"
)

var json = jsoniter.Config{UseNumber: true}.Froze()

var _ array.RecordReader = (*RecordReader)(nil)

// RecordReader decodes a stream of JSON objects, one row each, into records
// of a declared schema. Keys that are not declared are ignored and missing
// keys read as null.
type RecordReader struct {
	ref         int64
	dec         *jsoniter.Decoder
	schema      *schema.Schema
	batchSize   int
	emptyAsNull bool
	rec         arrow.Record
	rows        int64
	err         error
	done        bool
}

type Option func(*RecordReader)

// WithEmptyAsNull reads empty strings as null, the way local CSV scans
// read empty cells.
func WithEmptyAsNull() Option {
	return func(r *RecordReader) {
		r.emptyAsNull = true
	}
}

func NewRecordReader(r io.Reader, sc *schema.Schema, batchSize int, opts ...Option) *RecordReader {
	if batchSize <= 0 {
		batchSize = 1
	}
	rr := &RecordReader{
		ref:       1,
		dec:       json.NewDecoder(r),
		schema:    sc,
		batchSize: batchSize,
	}
	for _, opt := range opts {
		opt(rr)
	}
	return rr
}

func (r *RecordReader) Retain() {
	atomic.AddInt64(&r.ref, 1)
}

func (r *RecordReader) Release() {
	if atomic.AddInt64(&r.ref, -1) == 0 {
		if r.rec != nil {
			r.rec.Release()
			r.rec = nil
		}
	}
}

func (r *RecordReader) Schema() *arrow.Schema {
	return r.schema.Schema()
}

func (r *RecordReader) Next() bool {
	if r.rec != nil {
		r.rec.Release()
		r.rec = nil
	}
	if r.done || r.err != nil {
		return false
	}

	b := array.NewRecordBuilder(memory.DefaultAllocator, r.schema.Schema())
	defer b.Release()
	fields := r.schema.Fields()
	n := 0
	for n < r.batchSize {
		if !r.dec.More() {
			r.done = true
			break
		}
		row := make(map[string]any, len(fields))
		if err := r.dec.Decode(&row); err != nil {
			if err == io.EOF {
				r.done = true
				break
			}
			r.err = errors.Wrapf(err, "decode row %d", r.rows+int64(n)+1)
			return false
		}
		for i, f := range fields {
			v := row[f.Name]
			if s, ok := v.(string); ok && s == "" && r.emptyAsNull {
				v = nil
			}
			cv, err := f.Type.Coerce(v)
			if err != nil {
				r.err = errors.Wrapf(serrors.ErrSchemaNotMatch, "row %d column %q: %v", r.rows+int64(n)+1, f.Name, err)
				return false
			}
			if cv == nil && !f.Nullable {
				r.err = errors.Wrapf(serrors.ErrNullViolation, "row %d column %q", r.rows+int64(n)+1, f.Name)
				return false
			}
			if err := utils.AppendValue(b.Field(i), cv); err != nil {
				r.err = err
				return false
			}
		}
		n++
	}
	if n == 0 {
		return false
	}
	r.rows += int64(n)
	r.rec = b.NewRecord()
	return true
}

func (r *RecordReader) Record() arrow.Record {
	return r.rec
}

func (r *RecordReader) Err() error {
	return r.err
}

// Rows is the number of rows decoded so far.
func (r *RecordReader) Rows() int64 {
	return r.rows
}
