package json

import (
	"context"
	"io"
	"sort"

	"github.com/apache/arrow/go/v12/arrow"
	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/minio/spark-select/go/file/fragment"
	"github.com/minio/spark-select/go/io/format"
	"github.com/minio/spark-select/go/io/fs"
	"github.com/minio/spark-select/go/io/fs/file"
	"github.com/minio/spark-select/go/storage/options/option"
	"github.com/minio/spark-select/go/storage/schema"
	"github.com/pkg/errors"
)

var _ format.Reader = (*FileReader)(nil)

// Inspect checks that the object exists. JSON carries no schema, every
// declared field is read from the key of the same name.
func Inspect(ctx context.Context, fs fs.Fs, frag *fragment.Fragment, sc *schema.Schema) error {
	f, err := fs.OpenFile(ctx, frag.Path())
	if err != nil {
		return err
	}
	f.Close()
	frag.SetLayout(sc.Schema(), sc.Names())
	return nil
}

type FileReader struct {
	file   file.File
	reader *RecordReader
}

func (r *FileReader) Read() (arrow.Record, error) {
	if !r.reader.Next() {
		if err := r.reader.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	rec := r.reader.Record()
	rec.Retain()
	return rec, nil
}

func (r *FileReader) Close() error {
	r.reader.Release()
	return r.file.Close()
}

func NewFileReader(ctx context.Context, fs fs.Fs, frag *fragment.Fragment, sc *schema.Schema, opts *option.ReadOptions) (*FileReader, error) {
	f, err := fs.OpenFile(ctx, frag.Path())
	if err != nil {
		return nil, err
	}
	r, err := format.Decompress(f, opts.Compression)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &FileReader{file: f, reader: NewRecordReader(r, sc, opts.BatchSize)}, nil
}

// Sample derives a layout from the first object of the stream. Integral
// numbers read as long, other numbers as double. Nested values are left
// out.
func Sample(ctx context.Context, fs fs.Fs, path string, compression string) (*arrow.Schema, error) {
	f, err := fs.OpenFile(ctx, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := format.Decompress(f, compression)
	if err != nil {
		return nil, err
	}
	row := make(map[string]any)
	if err := json.NewDecoder(r).Decode(&row); err != nil {
		return nil, errors.Wrapf(serrors.ErrSchemaNotMatch, "%s: decode first row: %v", path, err)
	}
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]arrow.Field, 0, len(keys))
	for _, k := range keys {
		var t schema.DataType
		switch v := row[k].(type) {
		case interface{ Int64() (int64, error) }:
			t = schema.Double
			if _, err := v.Int64(); err == nil {
				t = schema.Long
			}
		case string, nil:
			t = schema.String
		case bool:
			t = schema.Boolean
		default:
			continue
		}
		fields = append(fields, arrow.Field{Name: k, Type: t.ArrowType(), Nullable: true})
	}
	return arrow.NewSchema(fields, nil), nil
}
