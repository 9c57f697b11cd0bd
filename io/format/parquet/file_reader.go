package parquet

import (
	"context"
	"io"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/minio/spark-select/go/common/arrow_util"
	"github.com/minio/spark-select/go/common/log"
	"github.com/minio/spark-select/go/file/fragment"
	"github.com/minio/spark-select/go/io/format"
	"github.com/minio/spark-select/go/io/fs"
	"github.com/minio/spark-select/go/io/fs/file"
	"github.com/minio/spark-select/go/storage/options/option"
	"github.com/minio/spark-select/go/storage/schema"
	"github.com/pkg/errors"
)

var _ format.Reader = (*FileReader)(nil)

// Inspect reads the footer of the object behind frag and matches sc against
// its columns.
func Inspect(ctx context.Context, fs fs.Fs, frag *fragment.Fragment, sc *schema.Schema) error {
	reader, f, err := arrow_util.MakeArrowFileReader(ctx, fs, frag.Path(), 1)
	if err != nil {
		return err
	}
	defer f.Close()

	physical, err := reader.Schema()
	if err != nil {
		return errors.Wrapf(err, "read schema of %s", frag.Path())
	}
	indices, err := sc.Reconcile(physical)
	if err != nil {
		return errors.Wrapf(err, "%s", frag.Path())
	}
	columns := make([]string, len(indices))
	for i, idx := range indices {
		columns[i] = physical.Field(idx).Name
	}
	frag.SetLayout(physical, columns)
	frag.SetNumRows(reader.ParquetReader().NumRows())
	return nil
}

type FileReader struct {
	file    file.File
	reader  array.RecordReader
	schema  *schema.Schema
	columns []string
	read    int
	skipped int
}

func (r *FileReader) Read() (arrow.Record, error) {
	if r.reader == nil || !r.reader.Next() {
		if r.reader != nil && r.reader.Err() != nil {
			return nil, r.reader.Err()
		}
		return nil, io.EOF
	}
	return arrow_util.ConformRecord(r.reader.Record(), r.schema, r.columns)
}

// RowGroups reports how many row groups are read and how many were skipped
// by their statistics.
func (r *FileReader) RowGroups() (read, skipped int) {
	return r.read, r.skipped
}

func (r *FileReader) Close() error {
	if r.reader != nil {
		r.reader.Release()
		r.reader = nil
	}
	return r.file.Close()
}

func NewFileReader(ctx context.Context, fs fs.Fs, frag *fragment.Fragment, sc *schema.Schema, opts *option.ReadOptions) (*FileReader, error) {
	reader, f, err := arrow_util.MakeArrowFileReader(ctx, fs, frag.Path(), opts.BatchSize)
	if err != nil {
		return nil, err
	}
	columns := frag.Columns()
	mapping := make(map[string]string, len(columns))
	for i, field := range sc.Fields() {
		mapping[field.Name] = columns[i]
	}
	rr, skipped, err := arrow_util.MakeArrowRecordReader(ctx, reader, mapping, opts.Filters)
	if err != nil {
		f.Close()
		return nil, err
	}
	total := reader.ParquetReader().NumRowGroups()
	log.Debug("parquet row groups selected", log.String("path", frag.Path()), log.Int("total", total), log.Int("skipped", skipped))
	return &FileReader{
		file:    f,
		reader:  rr,
		schema:  sc,
		columns: columns,
		read:    total - skipped,
		skipped: skipped,
	}, nil
}
