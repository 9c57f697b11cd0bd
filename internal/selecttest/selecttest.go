// Package selecttest provides an in-memory object store that serves Select
// requests, for tests of the pushdown read path.
package selecttest

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/apache/arrow/go/v12/arrow"
	jsoniter "github.com/json-iterator/go"
	"github.com/minio/spark-select/go/common/constant"
	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/minio/spark-select/go/common/utils"
	"github.com/minio/spark-select/go/file/fragment"
	"github.com/minio/spark-select/go/filter"
	"github.com/minio/spark-select/go/io/format"
	"github.com/minio/spark-select/go/io/format/csv"
	"github.com/minio/spark-select/go/io/format/json"
	"github.com/minio/spark-select/go/io/format/parquet"
	"github.com/minio/spark-select/go/io/fs"
	"github.com/minio/spark-select/go/io/selector"
	"github.com/minio/spark-select/go/storage/options/option"
	"github.com/pkg/errors"
)

var _ selector.Selector = (*Fs)(nil)

// Fs answers Select requests by decoding the stored object and keeping the
// rows that pass the pushed filters, the way an object store evaluates the
// WHERE clause.
type Fs struct {
	*fs.MemoryFs

	mu       sync.Mutex
	requests []*selector.Request
	// SelectErr, when set, fails every Select request.
	SelectErr error
}

func New() *Fs {
	return &Fs{MemoryFs: fs.NewMemoryFs()}
}

// Requests returns the Select requests received so far.
func (f *Fs) Requests() []*selector.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*selector.Request(nil), f.requests...)
}

func (f *Fs) Select(ctx context.Context, key string, req *selector.Request) (selector.Results, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.SelectErr != nil {
		return nil, f.SelectErr
	}

	content, err := f.ReadFile(ctx, key)
	if err != nil {
		return nil, err
	}
	reader, err := f.open(ctx, key, req)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var out bytes.Buffer
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(&out)
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		err = writeRows(enc, rec, req.Query.Pushed)
		rec.Release()
		if err != nil {
			return nil, err
		}
	}
	return &results{
		Reader: bytes.NewReader(out.Bytes()),
		stats: selector.Stats{
			BytesScanned:   int64(len(content)),
			BytesProcessed: int64(len(content)),
			BytesReturned:  int64(out.Len()),
		},
	}, nil
}

func (f *Fs) open(ctx context.Context, key string, req *selector.Request) (format.Reader, error) {
	sc := req.Query.Schema
	opts := option.NewReadOptions()
	opts.Format = req.Format
	opts.CSV = req.CSV
	opts.Compression = req.Compression
	opts.Filters = req.Query.Pushed
	frag := fragment.NewFragment(0, key, 0)

	switch req.Format {
	case constant.FormatSelectParquet:
		if err := parquet.Inspect(ctx, f, frag, sc); err != nil {
			return nil, err
		}
		return parquet.NewFileReader(ctx, f, frag, sc, opts)
	case constant.FormatSelectCSV:
		if err := csv.Inspect(ctx, f, frag, sc, opts); err != nil {
			return nil, err
		}
		return csv.NewFileReader(ctx, f, frag, sc, opts)
	case constant.FormatSelectJSON:
		if err := json.Inspect(ctx, f, frag, sc); err != nil {
			return nil, err
		}
		return json.NewFileReader(ctx, f, frag, sc, opts)
	}
	return nil, errors.Wrapf(serrors.ErrUnknownFormat, "%q", req.Format)
}

func writeRows(enc *jsoniter.Encoder, rec arrow.Record, filters []filter.Filter) error {
	bs := filter.Matches(rec, filters)
	for i := 0; i < int(rec.NumRows()); i++ {
		if !bs.Test(uint(i)) {
			continue
		}
		row := make(map[string]any, rec.NumCols())
		for c, field := range rec.Schema().Fields() {
			row[field.Name] = utils.ValueAt(rec.Column(c), i)
		}
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return nil
}

type results struct {
	*bytes.Reader
	stats selector.Stats
}

func (r *results) Close() error {
	return nil
}

func (r *results) Stats() selector.Stats {
	return r.stats
}
