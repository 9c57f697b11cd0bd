package storage

import (
	"fmt"
	"strconv"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/minio/spark-select/go/common/metrics"
	"github.com/minio/spark-select/go/common/utils"
)

// Row holds one value per column: string, bool, int32, int64, float32,
// float64 or nil.
type Row []any

// Strings renders the values the way Show prints them.
func (r Row) Strings() []string {
	ret := make([]string, len(r))
	for i, v := range r {
		ret[i] = FormatValue(v)
	}
	return ret
}

func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// RowIterator walks the rows of a dataset one at a time.
type RowIterator struct {
	reader  array.RecordReader
	metrics *metrics.ReadMetrics
	rec     arrow.Record
	pos     int
	row     Row
	closed  bool
}

func newRowIterator(reader array.RecordReader, m *metrics.ReadMetrics) *RowIterator {
	return &RowIterator{reader: reader, metrics: m}
}

func (it *RowIterator) Next() bool {
	if it.closed {
		return false
	}
	for it.rec == nil || it.pos >= int(it.rec.NumRows()) {
		if !it.reader.Next() {
			it.rec = nil
			return false
		}
		it.rec = it.reader.Record()
		it.pos = 0
		it.metrics.RowsReturned(it.rec.NumRows())
	}
	row := make(Row, it.rec.NumCols())
	for c := range row {
		row[c] = utils.ValueAt(it.rec.Column(c), it.pos)
	}
	it.row = row
	it.pos++
	return true
}

func (it *RowIterator) Row() Row {
	return it.row
}

func (it *RowIterator) Err() error {
	return it.reader.Err()
}

// Close releases the reader. Reading stops early if it has not reached the
// end.
func (it *RowIterator) Close() {
	if it.closed {
		return
	}
	it.closed = true
	it.rec = nil
	it.reader.Release()
}
