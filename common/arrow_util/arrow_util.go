package arrow_util

import (
	"context"
	"sort"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/apache/arrow/go/v12/parquet/file"
	"github.com/apache/arrow/go/v12/parquet/metadata"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"
	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/minio/spark-select/go/common/utils"
	"github.com/minio/spark-select/go/filter"
	"github.com/minio/spark-select/go/io/fs"
	fsfile "github.com/minio/spark-select/go/io/fs/file"
	"github.com/minio/spark-select/go/storage/schema"
	"github.com/pkg/errors"
)

// MakeArrowFileReader opens a parquet object. Only the footer is read. The
// returned file must be closed by the caller once the reader is done.
func MakeArrowFileReader(ctx context.Context, fs fs.Fs, filePath string, batchSize int) (*pqarrow.FileReader, fsfile.File, error) {
	f, err := fs.OpenFile(ctx, filePath)
	if err != nil {
		return nil, nil, err
	}
	parquetReader, err := file.NewParquetReader(f)
	if err != nil {
		f.Close()
		return nil, nil, errors.Wrapf(serrors.ErrSchemaNotMatch, "%s is not a parquet file: %v", filePath, err)
	}
	reader, err := pqarrow.NewFileReader(parquetReader, pqarrow.ArrowReadProperties{BatchSize: int64(batchSize)}, memory.DefaultAllocator)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return reader, f, nil
}

// MakeArrowRecordReader reads the given columns of the row groups whose
// statistics do not rule out every filter. columns maps declared names to
// physical column names. It returns a nil reader when every row group is
// skipped.
func MakeArrowRecordReader(ctx context.Context, reader *pqarrow.FileReader, columns map[string]string, filters []filter.Filter) (array.RecordReader, int, error) {
	meta := reader.ParquetReader().MetaData()
	columnIndices := make([]int, 0, len(columns))
	seen := make(map[int]struct{}, len(columns))
	for _, physical := range columns {
		idx := meta.Schema.ColumnIndexByName(physical)
		if idx < 0 {
			return nil, 0, errors.Wrapf(serrors.ErrSchemaNotMatch, "column %q is not a top level parquet column", physical)
		}
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		columnIndices = append(columnIndices, idx)
	}
	sort.Ints(columnIndices)

	var rowGroupsIndices []int
	skipped := 0
	for i := 0; i < reader.ParquetReader().NumRowGroups(); i++ {
		if len(filters) > 0 {
			stats, err := filter.NewRowGroupStats(meta.RowGroup(i))
			if err != nil {
				return nil, 0, err
			}
			if canSkip(renameStats(stats, columns), filters) {
				skipped++
				continue
			}
		}
		rowGroupsIndices = append(rowGroupsIndices, i)
	}
	if len(rowGroupsIndices) == 0 {
		return nil, skipped, nil
	}

	rr, err := reader.GetRecordReader(ctx, columnIndices, rowGroupsIndices)
	if err != nil {
		return nil, skipped, err
	}
	return rr, skipped, nil
}

func canSkip(stats *filter.RowGroupStats, filters []filter.Filter) bool {
	for _, f := range filters {
		if f.CheckStatistics(stats) {
			return true
		}
	}
	return false
}

func renameStats(stats *filter.RowGroupStats, columns map[string]string) *filter.RowGroupStats {
	renamed := &filter.RowGroupStats{NumRows: stats.NumRows, Columns: make(map[string]metadata.TypedStatistics, len(columns))}
	for declared, physical := range columns {
		if st, ok := stats.Columns[physical]; ok {
			renamed.Columns[declared] = st
		}
	}
	return renamed
}

// ConformRecord rearranges rec into the layout of sc. sourceColumns names,
// for every declared field, the column of rec it is read from. Columns
// stored with a narrower type are widened and nulls in non-nullable fields
// are rejected.
func ConformRecord(rec arrow.Record, sc *schema.Schema, sourceColumns []string) (arrow.Record, error) {
	fields := sc.Fields()
	cols := make([]arrow.Array, 0, len(fields))
	release := func() {
		for _, c := range cols {
			c.Release()
		}
	}
	for i, f := range fields {
		indices := rec.Schema().FieldIndices(sourceColumns[i])
		if len(indices) == 0 {
			release()
			return nil, errors.Wrapf(serrors.ErrSchemaNotMatch, "column %q missing from batch", sourceColumns[i])
		}
		src := rec.Column(indices[0])
		if !f.Nullable && src.NullN() > 0 {
			release()
			return nil, errors.Wrapf(serrors.ErrNullViolation, "column %q", f.Name)
		}
		if arrow.TypeEqual(src.DataType(), f.Type.ArrowType()) {
			src.Retain()
			cols = append(cols, src)
			continue
		}
		converted, err := CastArray(src, f.Type)
		if err != nil {
			release()
			return nil, errors.Wrapf(err, "column %q", f.Name)
		}
		cols = append(cols, converted)
	}
	out := array.NewRecord(sc.Schema(), cols, rec.NumRows())
	release()
	return out, nil
}

// CastArray converts every value of arr into t.
func CastArray(arr arrow.Array, t schema.DataType) (arrow.Array, error) {
	b := array.NewBuilder(memory.DefaultAllocator, t.ArrowType())
	defer b.Release()
	b.Reserve(arr.Len())
	for i := 0; i < arr.Len(); i++ {
		v, err := t.Coerce(utils.ValueAt(arr, i))
		if err != nil {
			return nil, errors.Wrap(serrors.ErrSchemaNotMatch, err.Error())
		}
		if err := utils.AppendValue(b, v); err != nil {
			return nil, err
		}
	}
	return b.NewArray(), nil
}

// FilterRecord returns the rows of rec for which keep is true.
func FilterRecord(rec arrow.Record, keep func(i int) bool) (arrow.Record, error) {
	n := int(rec.NumRows())
	kept := 0
	for i := 0; i < n; i++ {
		if keep(i) {
			kept++
		}
	}
	if kept == n {
		rec.Retain()
		return rec, nil
	}
	b := array.NewRecordBuilder(memory.DefaultAllocator, rec.Schema())
	defer b.Release()
	for i := 0; i < n; i++ {
		if !keep(i) {
			continue
		}
		for c := 0; c < int(rec.NumCols()); c++ {
			if err := utils.AppendValue(b.Field(c), utils.ValueAt(rec.Column(c), i)); err != nil {
				return nil, err
			}
		}
	}
	return b.NewRecord(), nil
}
