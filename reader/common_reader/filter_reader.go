package common_reader

import (
	"sync/atomic"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/minio/spark-select/go/common/arrow_util"
	"github.com/minio/spark-select/go/filter"
)

// FilterReader evaluates filters over every record of recordReader and
// yields only the matching rows. Records with no matching row are skipped.
type FilterReader struct {
	ref          int64
	recordReader array.RecordReader
	filters      []filter.Filter
	rec          arrow.Record
	rows         int64
	err          error
}

func MakeFilterReader(recordReader array.RecordReader, filters []filter.Filter) *FilterReader {
	return &FilterReader{
		ref:          1,
		recordReader: recordReader,
		filters:      filters,
	}
}

func (r *FilterReader) Retain() {
	atomic.AddInt64(&r.ref, 1)
}

func (r *FilterReader) Release() {
	if atomic.AddInt64(&r.ref, -1) == 0 {
		if r.rec != nil {
			r.rec.Release()
			r.rec = nil
		}
		r.recordReader.Release()
	}
}

func (r *FilterReader) Schema() *arrow.Schema {
	return r.recordReader.Schema()
}

func (r *FilterReader) Next() bool {
	if r.rec != nil {
		r.rec.Release()
		r.rec = nil
	}
	if r.err != nil {
		return false
	}
	for r.recordReader.Next() {
		rec := r.recordReader.Record()
		if len(r.filters) == 0 {
			rec.Retain()
			r.rec = rec
			r.rows += rec.NumRows()
			return true
		}
		bs := filter.Matches(rec, r.filters)
		if bs.None() {
			continue
		}
		filtered, err := arrow_util.FilterRecord(rec, func(i int) bool { return bs.Test(uint(i)) })
		if err != nil {
			r.err = err
			return false
		}
		r.rec = filtered
		r.rows += filtered.NumRows()
		return true
	}
	r.err = r.recordReader.Err()
	return false
}

func (r *FilterReader) Record() arrow.Record {
	return r.rec
}

func (r *FilterReader) Err() error {
	return r.err
}

// Rows is the number of rows yielded so far.
func (r *FilterReader) Rows() int64 {
	return r.rows
}
