package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/minio/spark-select/go/common/constant"
	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/minio/spark-select/go/common/log"
	"github.com/minio/spark-select/go/common/metrics"
	"github.com/minio/spark-select/go/common/uri"
	"github.com/minio/spark-select/go/common/utils"
	"github.com/minio/spark-select/go/file/fragment"
	"github.com/minio/spark-select/go/filter"
	"github.com/minio/spark-select/go/filter/parser"
	"github.com/minio/spark-select/go/io/format/csv"
	"github.com/minio/spark-select/go/io/format/json"
	"github.com/minio/spark-select/go/io/format/parquet"
	"github.com/minio/spark-select/go/io/fs"
	"github.com/minio/spark-select/go/reader/record_reader"
	"github.com/minio/spark-select/go/storage/options/option"
	"github.com/minio/spark-select/go/storage/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Dataset is a schema bound to the objects of one location, together with
// the filters and projection to apply when it is read. Filter and Select
// return new datasets and never touch the object store.
type Dataset struct {
	location  *uri.URI
	fs        fs.Fs
	schema    *schema.Schema
	output    *schema.Schema
	fragments fragment.FragmentVector
	options   *option.ReadOptions
	metrics   *metrics.ReadMetrics
}

// Open checks sc, then that location exists, then that every object under
// it can be read with sc. Only Parquet footers and CSV header lines are
// fetched.
func Open(ctx context.Context, f fs.Fs, location *uri.URI, sc *schema.Schema, opts *option.ReadOptions, m *metrics.ReadMetrics) (*Dataset, error) {
	if sc == nil {
		return nil, serrors.ErrSchemaIsNil
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if _, ok := inspectors[opts.Format]; !ok {
		return nil, errors.Wrapf(serrors.ErrUnknownFormat, "%q", opts.Format)
	}

	fragments, err := listFragments(ctx, f, location)
	if err != nil {
		return nil, err
	}
	if err := inspect(ctx, f, fragments, sc, opts); err != nil {
		return nil, err
	}
	m.ObjectsOpened(len(fragments))
	log.Debug("dataset opened",
		log.String("location", location.String()),
		log.Strings("objects", fragment.ToFilesVector(fragments)),
		log.Int64("rows", fragments.NumRows()))

	return &Dataset{
		location:  location,
		fs:        f,
		schema:    sc,
		output:    sc,
		fragments: fragments,
		options:   opts,
		metrics:   m,
	}, nil
}

func listFragments(ctx context.Context, f fs.Fs, location *uri.URI) (fragment.FragmentVector, error) {
	if !location.IsPrefix() {
		exist, err := f.Exist(ctx, location.Key)
		if err != nil {
			return nil, err
		}
		if !exist {
			return nil, errors.Wrapf(serrors.ErrNotFound, "%s", location)
		}
		return fragment.FragmentVector{fragment.NewFragment(0, location.Key, 0)}, nil
	}

	entries, err := f.List(ctx, location.Key)
	if err != nil {
		return nil, err
	}
	var fragments fragment.FragmentVector
	for _, e := range entries {
		if hidden(location.Key, e.Path) {
			continue
		}
		fragments = append(fragments, fragment.NewFragment(int64(len(fragments)), e.Path, e.Size))
	}
	if len(fragments) == 0 {
		return nil, errors.Wrapf(serrors.ErrNotFound, "no objects under %s", location)
	}
	return fragments, nil
}

// hidden reports objects below prefix that directory reads skip, such as
// _SUCCESS markers or anything in a _temporary or dot directory.
func hidden(prefix, p string) bool {
	rel := strings.TrimPrefix(p, prefix)
	for _, part := range strings.Split(rel, "/") {
		if part != "" && utils.IsHiddenFile(part) {
			return true
		}
	}
	return strings.HasSuffix(p, "/")
}

type inspectFunc func(ctx context.Context, f fs.Fs, frag *fragment.Fragment, sc *schema.Schema, opts *option.ReadOptions) error

var inspectors = map[string]inspectFunc{
	constant.FormatSelectParquet: func(ctx context.Context, f fs.Fs, frag *fragment.Fragment, sc *schema.Schema, _ *option.ReadOptions) error {
		return parquet.Inspect(ctx, f, frag, sc)
	},
	constant.FormatSelectCSV: csv.Inspect,
	constant.FormatSelectJSON: func(ctx context.Context, f fs.Fs, frag *fragment.Fragment, sc *schema.Schema, _ *option.ReadOptions) error {
		return json.Inspect(ctx, f, frag, sc)
	},
}

func inspect(ctx context.Context, f fs.Fs, fragments fragment.FragmentVector, sc *schema.Schema, opts *option.ReadOptions) error {
	fn := inspectors[opts.Format]
	g, gctx := errgroup.WithContext(ctx)
	if opts.OpenConcurrency > 0 {
		g.SetLimit(opts.OpenConcurrency)
	}
	for _, frag := range fragments {
		frag := frag
		g.Go(func() error {
			return fn(gctx, f, frag, sc, opts)
		})
	}
	return g.Wait()
}

func (d *Dataset) with(opts *option.ReadOptions) *Dataset {
	c := *d
	c.options = opts
	return &c
}

// Filter returns a dataset that keeps only the rows matching f. Columns
// and literals are checked against the declared schema.
func (d *Dataset) Filter(f filter.Filter) (*Dataset, error) {
	bound, err := f.Bind(d.schema)
	if err != nil {
		return nil, err
	}
	opts := d.options.Clone()
	opts.AddFilter(bound)
	return d.with(opts), nil
}

// FilterExpr parses expr, for example "age > 19 AND name IS NOT NULL",
// and applies it like Filter.
func (d *Dataset) FilterExpr(expr string) (*Dataset, error) {
	f, err := parser.Parse(expr)
	if err != nil {
		return nil, err
	}
	return d.Filter(f)
}

// Select returns a dataset that yields only the given columns, in order.
// "*" keeps every column of d.
func (d *Dataset) Select(columns ...string) (*Dataset, error) {
	if len(columns) == 1 && columns[0] == "*" {
		return d, nil
	}
	if len(columns) == 0 {
		return nil, errors.Wrap(serrors.ErrInvalidSchema, "select needs at least one column")
	}
	projected, err := d.output.Project(columns)
	if err != nil {
		return nil, err
	}
	opts := d.options.Clone()
	opts.SetColumns(projected.Names())
	c := d.with(opts)
	c.output = projected
	return c, nil
}

// Schema is the layout of the rows d yields.
func (d *Dataset) Schema() *schema.Schema {
	return d.output
}

func (d *Dataset) Location() *uri.URI {
	return d.location
}

func (d *Dataset) Filters() []filter.Filter {
	return d.options.Filters
}

// Objects lists the keys of the objects d reads.
func (d *Dataset) Objects() []string {
	return fragment.ToFilesVector(d.fragments)
}

// RecordReader starts the read. The caller releases the reader.
func (d *Dataset) RecordReader(ctx context.Context) array.RecordReader {
	return record_reader.MakeRecordReader(ctx, d.schema, d.fs, d.fragments, d.options, d.metrics)
}

func (d *Dataset) Rows(ctx context.Context) *RowIterator {
	return newRowIterator(d.RecordReader(ctx), d.metrics)
}

// Collect reads every matching row.
func (d *Dataset) Collect(ctx context.Context) ([]Row, error) {
	it := d.Rows(ctx)
	defer it.Close()
	rows := make([]Row, 0)
	for it.Next() {
		rows = append(rows, it.Row())
	}
	return rows, it.Err()
}

// Count returns the number of matching rows. Unfiltered Parquet datasets
// are counted from their footers when no read could fail a null check.
func (d *Dataset) Count(ctx context.Context) (int64, error) {
	if n, ok := d.footerCount(); ok {
		return n, nil
	}
	reader := d.RecordReader(ctx)
	defer reader.Release()
	var n int64
	for reader.Next() {
		n += reader.Record().NumRows()
	}
	return n, reader.Err()
}

// footerCount sums the footer row counts. Every declared non-nullable
// field must be stored as a required column, otherwise a scan is needed to
// report ErrNullViolation.
func (d *Dataset) footerCount() (int64, bool) {
	if len(d.options.Filters) > 0 {
		return 0, false
	}
	n := d.fragments.NumRows()
	if n < 0 {
		return 0, false
	}
	for _, frag := range d.fragments {
		layout, columns := frag.Layout(), frag.Columns()
		for i, f := range d.schema.Fields() {
			if f.Nullable {
				continue
			}
			if layout == nil || i >= len(columns) {
				return 0, false
			}
			idx := layout.FieldIndices(columns[i])
			if len(idx) != 1 || layout.Field(idx[0]).Nullable {
				return 0, false
			}
		}
	}
	return n, true
}

// Show prints the first n rows as a table. n <= 0 prints every row.
func (d *Dataset) Show(ctx context.Context, w io.Writer, n int) error {
	it := d.Rows(ctx)
	defer it.Close()

	table := tablewriter.NewWriter(w)
	table.SetHeader(d.Schema().Names())
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	shown, more := 0, false
	for it.Next() {
		if n > 0 && shown == n {
			more = true
			break
		}
		table.Append(it.Row().Strings())
		shown++
	}
	if err := it.Err(); err != nil {
		return err
	}
	table.Render()
	if more {
		_, err := fmt.Fprintf(w, "only showing top %d %s\n", n, plural(n, "row"))
		return err
	}
	return nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func (d *Dataset) String() string {
	return fmt.Sprintf("Dataset[%s] at %s (%s)", d.output, d.location, d.options.Format)
}
