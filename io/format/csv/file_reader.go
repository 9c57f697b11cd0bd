package csv

import (
	"bufio"
	"context"
	stdcsv "encoding/csv"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/apache/arrow/go/v12/arrow"
	arrowcsv "github.com/apache/arrow/go/v12/arrow/csv"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/minio/spark-select/go/common/arrow_util"
	"github.com/minio/spark-select/go/common/constant"
	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/minio/spark-select/go/file/fragment"
	"github.com/minio/spark-select/go/io/format"
	"github.com/minio/spark-select/go/io/fs"
	"github.com/minio/spark-select/go/io/fs/file"
	"github.com/minio/spark-select/go/io/selector"
	"github.com/minio/spark-select/go/storage/options/option"
	"github.com/minio/spark-select/go/storage/schema"
	"github.com/pkg/errors"
)

var _ format.Reader = (*FileReader)(nil)

// Inspect reads the first line of the object and matches sc against it.
// With a header columns match by name, otherwise declared fields are read
// by position.
func Inspect(ctx context.Context, fs fs.Fs, frag *fragment.Fragment, sc *schema.Schema, opts *option.ReadOptions) error {
	first, err := readFirstRecord(ctx, fs, frag.Path(), opts)
	if err != nil {
		return err
	}

	names := make([]string, len(first))
	var indices []int
	if opts.CSV.Header {
		copy(names, first)
		if indices, err = sc.MatchNames(names); err != nil {
			return errors.Wrapf(err, "%s", frag.Path())
		}
	} else {
		if len(first) < sc.Len() {
			return errors.Wrapf(serrors.ErrSchemaNotMatch, "%s has %d columns, %d declared", frag.Path(), len(first), sc.Len())
		}
		for i := range names {
			names[i] = positional(i)
		}
		indices = make([]int, sc.Len())
		for i := range indices {
			indices[i] = i
		}
	}

	fields := make([]arrow.Field, len(names))
	for i, n := range names {
		fields[i] = arrow.Field{Name: n, Type: arrow.BinaryTypes.String, Nullable: true}
	}
	columns := make([]string, sc.Len())
	for i, f := range sc.Fields() {
		fields[indices[i]].Type = f.Type.ArrowType()
		columns[i] = names[indices[i]]
	}
	frag.SetLayout(arrow.NewSchema(fields, nil), columns)
	return nil
}

// Header returns the column names of the object, _1, _2, ... when it has no
// header line.
func Header(ctx context.Context, fs fs.Fs, path string, opts *option.ReadOptions) ([]string, error) {
	first, err := readFirstRecord(ctx, fs, path, opts)
	if err != nil {
		return nil, err
	}
	if opts.CSV.Header {
		return first, nil
	}
	names := make([]string, len(first))
	for i := range names {
		names[i] = positional(i)
	}
	return names, nil
}

func positional(i int) string {
	return "_" + strconv.Itoa(i+1)
}

func readFirstRecord(ctx context.Context, fs fs.Fs, path string, opts *option.ReadOptions) ([]string, error) {
	f, err := fs.OpenFile(ctx, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := format.Decompress(io.LimitReader(f, constant.CSVHeaderPeekSize), opts.Compression)
	if err != nil {
		return nil, err
	}
	cr := stdcsv.NewReader(bufio.NewReader(r))
	cr.Comma = delimiter(opts.CSV)
	cr.FieldsPerRecord = -1
	record, err := cr.Read()
	if err == io.EOF {
		return nil, errors.Wrapf(serrors.ErrSchemaNotMatch, "%s is empty", path)
	}
	if err != nil {
		return nil, errors.Wrapf(serrors.ErrSchemaNotMatch, "%s: read first line: %v", path, err)
	}
	return record, nil
}

func delimiter(opts selector.CSVOptions) rune {
	if opts.Delimiter == "" {
		return ','
	}
	r, _ := utf8.DecodeRuneInString(opts.Delimiter)
	return r
}

type FileReader struct {
	file    file.File
	reader  *arrowcsv.Reader
	schema  *schema.Schema
	columns []string
}

func (r *FileReader) Read() (arrow.Record, error) {
	if !r.reader.Next() {
		if err := r.reader.Err(); err != nil {
			return nil, errors.Wrap(serrors.ErrSchemaNotMatch, err.Error())
		}
		return nil, io.EOF
	}
	return arrow_util.ConformRecord(r.reader.Record(), r.schema, r.columns)
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
	reader := arrowcsv.NewReader(r, frag.Layout(),
		arrowcsv.WithAllocator(memory.DefaultAllocator),
		arrowcsv.WithComma(delimiter(opts.CSV)),
		arrowcsv.WithHeader(opts.CSV.Header),
		arrowcsv.WithChunk(opts.BatchSize),
		arrowcsv.WithNullReader(true, ""),
	)
	return &FileReader{file: f, reader: reader, schema: sc, columns: frag.Columns()}, nil
}
