package common_reader

import (
	"sync/atomic"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/minio/spark-select/go/common/utils"
)

// ProjectionReader narrows the records of reader to the given columns.
type ProjectionReader struct {
	ref     int64
	reader  array.RecordReader
	schema  *arrow.Schema
	indices []int
	rec     arrow.Record
}

// NewProjectionReader returns reader itself when columns is empty or names
// every column in order.
func NewProjectionReader(reader array.RecordReader, columns []string) array.RecordReader {
	projectionSchema := utils.ProjectSchema(reader.Schema(), columns)
	if projectionSchema.Equal(reader.Schema()) {
		return reader
	}
	indices := make([]int, len(projectionSchema.Fields()))
	for i, f := range projectionSchema.Fields() {
		indices[i] = reader.Schema().FieldIndices(f.Name)[0]
	}
	return &ProjectionReader{ref: 1, reader: reader, schema: projectionSchema, indices: indices}
}

func (r *ProjectionReader) Retain() {
	atomic.AddInt64(&r.ref, 1)
}

func (r *ProjectionReader) Release() {
	if atomic.AddInt64(&r.ref, -1) == 0 {
		if r.rec != nil {
			r.rec.Release()
			r.rec = nil
		}
		r.reader.Release()
	}
}

func (r *ProjectionReader) Schema() *arrow.Schema {
	return r.schema
}

func (r *ProjectionReader) Next() bool {
	if r.rec != nil {
		r.rec.Release()
		r.rec = nil
	}
	if !r.reader.Next() {
		return false
	}
	rec := r.reader.Record()
	cols := make([]arrow.Array, len(r.indices))
	for i, idx := range r.indices {
		cols[i] = rec.Column(idx)
	}
	r.rec = array.NewRecord(r.schema, cols, rec.NumRows())
	return true
}

func (r *ProjectionReader) Record() arrow.Record {
	return r.rec
}

func (r *ProjectionReader) Err() error {
	return r.reader.Err()
}
