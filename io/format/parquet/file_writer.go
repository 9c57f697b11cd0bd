package parquet

import (
	"context"
	"os"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/parquet"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"
	"github.com/minio/spark-select/go/io/format"
	"github.com/minio/spark-select/go/io/fs"
	"github.com/minio/spark-select/go/io/fs/file"
	"github.com/pkg/errors"
)

var _ format.Writer = (*FileWriter)(nil)

type FileWriter struct {
	file   file.Writer
	writer *pqarrow.FileWriter
	count  int64
}

func (f *FileWriter) Write(record arrow.Record) error {
	if err := f.writer.Write(record); err != nil {
		return err
	}
	f.count += record.NumRows()
	return nil
}

func (f *FileWriter) Count() int64 {
	return f.count
}

func (f *FileWriter) Close() error {
	if err := f.writer.Close(); err != nil {
		return err
	}
	if err := f.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}

// NewFileWriter creates a parquet object. Each Write becomes at most
// rowGroupSize rows per row group, 0 keeps the library default.
func NewFileWriter(ctx context.Context, schema *arrow.Schema, fs fs.Fs, filePath string, rowGroupSize int64) (*FileWriter, error) {
	w, err := fs.CreateFile(ctx, filePath)
	if err != nil {
		return nil, err
	}

	var props []parquet.WriterProperty
	if rowGroupSize > 0 {
		props = append(props, parquet.WithMaxRowGroupLength(rowGroupSize))
	}
	writer, err := pqarrow.NewFileWriter(schema, w, parquet.NewWriterProperties(props...), pqarrow.DefaultWriterProps())
	if err != nil {
		w.Close()
		return nil, err
	}

	return &FileWriter{file: w, writer: writer}, nil
}
