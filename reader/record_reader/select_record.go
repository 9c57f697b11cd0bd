package record_reader

import (
	"context"
	"io"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/google/uuid"
	"github.com/minio/spark-select/go/common/constant"
	"github.com/minio/spark-select/go/common/log"
	"github.com/minio/spark-select/go/common/metrics"
	"github.com/minio/spark-select/go/file/fragment"
	"github.com/minio/spark-select/go/io/format"
	"github.com/minio/spark-select/go/io/format/json"
	"github.com/minio/spark-select/go/io/selector"
	"github.com/minio/spark-select/go/storage/options/option"
	"github.com/minio/spark-select/go/storage/schema"
)

// SelectRecordReader sends one Select request per fragment and decodes the
// JSON lines the store returns. Only the pushable filters reach the store,
// callers evaluate the full filter set over the returned rows.
type SelectRecordReader struct {
	*MultiFilesSequentialReader
	schema   *schema.Schema
	options  *option.ReadOptions
	selector selector.Selector
	metrics  *metrics.ReadMetrics
}

func NewSelectRecordReader(
	ctx context.Context,
	s *schema.Schema,
	options *option.ReadOptions,
	sel selector.Selector,
	dataFragments fragment.FragmentVector,
	m *metrics.ReadMetrics,
) *SelectRecordReader {
	r := &SelectRecordReader{
		schema:   s,
		options:  options,
		selector: sel,
		metrics:  m,
	}
	r.MultiFilesSequentialReader = newMultiFilesSequentialReader(ctx, s.Schema(), dataFragments, r.openFragment)
	return r
}

// Query renders the statement sent for frag.
func (r *SelectRecordReader) Query(frag *fragment.Fragment) *selector.Query {
	return selector.BuildQuery(r.schema, r.options.Format, r.options.CSV, r.options.Filters, frag.Columns())
}

func (r *SelectRecordReader) openFragment(ctx context.Context, frag *fragment.Fragment) (format.Reader, error) {
	req := &selector.Request{
		Query:       r.Query(frag),
		Format:      r.options.Format,
		Compression: r.options.Compression,
		CSV:         r.options.CSV,
	}
	queryID := uuid.NewString()
	log.Debug("select object",
		log.String("query_id", queryID),
		log.String("path", frag.Path()),
		log.String("sql", req.Query.SQL),
		log.Int("residual_filters", len(req.Query.Residual)))

	results, err := r.selector.Select(ctx, frag.Path(), req)
	r.metrics.SelectRequest(r.options.Format, err)
	if err != nil {
		log.Warn("select request failed", log.String("query_id", queryID), log.String("path", frag.Path()), log.Err(err))
		return nil, err
	}

	var opts []json.Option
	if r.options.Format == constant.FormatSelectCSV {
		opts = append(opts, json.WithEmptyAsNull())
	}
	return &selectReader{
		queryID: queryID,
		results: results,
		reader:  json.NewRecordReader(results, r.schema, r.options.BatchSize, opts...),
		metrics: r.metrics,
	}, nil
}

// selectReader adapts one Select response to format.Reader.
type selectReader struct {
	queryID  string
	results  selector.Results
	reader   *json.RecordReader
	metrics  *metrics.ReadMetrics
	reported bool
}

func (s *selectReader) Read() (arrow.Record, error) {
	if !s.reader.Next() {
		if err := s.reader.Err(); err != nil {
			return nil, err
		}
		s.report()
		return nil, io.EOF
	}
	rec := s.reader.Record()
	rec.Retain()
	return rec, nil
}

func (s *selectReader) report() {
	if s.reported {
		return
	}
	s.reported = true
	st := s.results.Stats()
	s.metrics.SelectStats(st.BytesScanned, st.BytesProcessed, st.BytesReturned)
	log.Debug("select finished",
		log.String("query_id", s.queryID),
		log.Int64("rows", s.reader.Rows()),
		log.Int64("bytes_scanned", st.BytesScanned),
		log.Int64("bytes_returned", st.BytesReturned))
}

func (s *selectReader) Close() error {
	s.reader.Release()
	return s.results.Close()
}
