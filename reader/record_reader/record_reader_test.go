package record_reader

import (
	"context"
	"testing"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/minio/spark-select/go/common/constant"
	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/minio/spark-select/go/common/metrics"
	"github.com/minio/spark-select/go/common/utils"
	"github.com/minio/spark-select/go/file/fragment"
	"github.com/minio/spark-select/go/filter"
	"github.com/minio/spark-select/go/internal/selecttest"
	"github.com/minio/spark-select/go/io/format/csv"
	"github.com/minio/spark-select/go/io/format/parquet"
	"github.com/minio/spark-select/go/storage/options/option"
	"github.com/minio/spark-select/go/storage/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
)

type RecordReaderTestSuite struct {
	suite.Suite
	ctx     context.Context
	fs      *selecttest.Fs
	schema  *schema.Schema
	reg     *prometheus.Registry
	metrics *metrics.ReadMetrics
}

func (s *RecordReaderTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.fs = selecttest.New()
	s.schema = schema.NewSchema(
		schema.NewField("name", schema.String, true),
		schema.NewField("age", schema.Int, false),
	)
	s.reg = prometheus.NewRegistry()
	s.metrics = metrics.NewReadMetrics(s.reg)

	physical := arrow.NewSchema([]arrow.Field{
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "age", Type: arrow.PrimitiveTypes.Int32},
	}, nil)
	b := array.NewRecordBuilder(memory.DefaultAllocator, physical)
	defer b.Release()
	b.Field(0).(*array.StringBuilder).AppendValues([]string{"Alice", "Bob", ""}, []bool{true, true, false})
	b.Field(1).(*array.Int32Builder).AppendValues([]int32{30, 15, 42}, nil)
	rec := b.NewRecord()
	defer rec.Release()
	w, err := parquet.NewFileWriter(s.ctx, physical, s.fs, "people.parquet", 2)
	s.Require().NoError(err)
	s.Require().NoError(w.Write(rec))
	s.Require().NoError(w.Close())

	s.fs.WriteFile("people.csv", []byte("name,age\nAlice,30\nBob,15\n,42\n"))
}

func (s *RecordReaderTestSuite) fragments(format string, opts *option.ReadOptions) fragment.FragmentVector {
	var frag *fragment.Fragment
	switch format {
	case constant.FormatSelectParquet:
		frag = fragment.NewFragment(0, "people.parquet", 0)
		s.Require().NoError(parquet.Inspect(s.ctx, s.fs, frag, s.schema))
	case constant.FormatSelectCSV:
		frag = fragment.NewFragment(0, "people.csv", 0)
		s.Require().NoError(csv.Inspect(s.ctx, s.fs, frag, s.schema, opts))
	}
	return fragment.FragmentVector{frag}
}

func (s *RecordReaderTestSuite) read(format string, pushdown bool, columns []string, filters ...filter.Filter) [][]any {
	opts := option.NewReadOptions()
	opts.Format = format
	opts.Pushdown = pushdown
	opts.SetColumns(columns)
	for _, f := range filters {
		bound, err := f.Bind(s.schema)
		s.Require().NoError(err)
		opts.AddFilter(bound)
	}
	reader := MakeRecordReader(s.ctx, s.schema, s.fs, s.fragments(format, opts), opts, s.metrics)
	defer reader.Release()

	rows := make([][]any, 0)
	for reader.Next() {
		rec := reader.Record()
		for i := 0; i < int(rec.NumRows()); i++ {
			row := make([]any, rec.NumCols())
			for c := range row {
				row[c] = utils.ValueAt(rec.Column(c), i)
			}
			rows = append(rows, row)
		}
	}
	s.Require().NoError(reader.Err())
	return rows
}

func (s *RecordReaderTestSuite) counter(name string) float64 {
	families, err := s.reg.Gather()
	s.Require().NoError(err)
	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func (s *RecordReaderTestSuite) TestPushdownMatchesScan() {
	cases := [][]filter.Filter{
		nil,
		{filter.NewConstantFilter(filter.GreaterThan, "age", 19)},
		{filter.NewIsNullFilter("name")},
		{filter.NewOrFilter(
			filter.NewConstantFilter(filter.Equal, "name", "Bob"),
			filter.NewConstantFilter(filter.GreaterThanOrEqual, "age", 40),
		)},
		{filter.NewNotFilter(filter.NewInFilter("age", 30, 15))},
		{filter.NewConstantFilter(filter.LessThan, "age", 0)},
	}
	for _, format := range []string{constant.FormatSelectParquet, constant.FormatSelectCSV} {
		for _, filters := range cases {
			pushed := s.read(format, true, nil, filters...)
			scanned := s.read(format, false, nil, filters...)
			s.Equal(scanned, pushed, "format %s filters %v", format, filters)
		}
	}
}

func (s *RecordReaderTestSuite) TestPeople() {
	rows := s.read(constant.FormatSelectParquet, true, nil)
	s.Equal([][]any{{"Alice", int32(30)}, {"Bob", int32(15)}, {nil, int32(42)}}, rows)

	rows = s.read(constant.FormatSelectParquet, true, nil, filter.NewConstantFilter(filter.GreaterThan, "age", 19))
	s.Equal([][]any{{"Alice", int32(30)}, {nil, int32(42)}}, rows)

	requests := s.fs.Requests()
	s.Require().Len(requests, 2)
	s.Equal(`SELECT s."name" AS "name", s."age" AS "age" FROM S3Object s WHERE s."age" > 19`, requests[1].Query.SQL)
	s.Equal(2.0, s.counter("spark_select_select_requests_total"))
	s.Greater(s.counter("spark_select_select_bytes_returned_total"), 0.0)
}

func (s *RecordReaderTestSuite) TestProjection() {
	rows := s.read(constant.FormatSelectCSV, true, []string{"age"}, filter.NewIsNotNullFilter("name"))
	s.Equal([][]any{{int32(30)}, {int32(15)}}, rows)
	// IS NOT NULL cannot be pushed for CSV
	s.Equal(1.0, s.counter("spark_select_local_only_filters_total"))
	s.NotContains(s.fs.Requests()[0].Query.SQL, "WHERE")
}

func (s *RecordReaderTestSuite) TestScanRowGroups() {
	rows := s.read(constant.FormatSelectParquet, false, []string{"name"}, filter.NewConstantFilter(filter.GreaterThan, "age", 40))
	s.Equal([][]any{{nil}}, rows)
	s.Empty(s.fs.Requests())
	s.Equal(1.0, s.counter("spark_select_parquet_row_groups_read_total"))
	s.Equal(1.0, s.counter("spark_select_parquet_row_groups_skipped_total"))
}

func (s *RecordReaderTestSuite) TestSelectError() {
	s.fs.SelectErr = serrors.ErrNotFound
	opts := option.NewReadOptions()
	opts.Format = constant.FormatSelectParquet
	reader := MakeRecordReader(s.ctx, s.schema, s.fs, s.fragments(constant.FormatSelectParquet, opts), opts, s.metrics)
	defer reader.Release()
	s.False(reader.Next())
	s.ErrorIs(reader.Err(), serrors.ErrNotFound)
}

func (s *RecordReaderTestSuite) TestPinnedVersionScans() {
	s.fs.SelectErr = serrors.ErrSelectNotSupported
	opts := option.NewReadOptions()
	opts.Format = constant.FormatSelectParquet
	opts.VersionID = "3e2bd9f4"
	bound, err := filter.NewConstantFilter(filter.GreaterThan, "age", 19).Bind(s.schema)
	s.Require().NoError(err)
	opts.AddFilter(bound)

	reader := MakeRecordReader(s.ctx, s.schema, s.fs, s.fragments(constant.FormatSelectParquet, opts), opts, s.metrics)
	defer reader.Release()
	var rows int64
	for reader.Next() {
		rows += reader.Record().NumRows()
	}
	s.Require().NoError(reader.Err())
	s.Equal(int64(2), rows)
	s.Empty(s.fs.Requests())

	_, ok := selectorFor(s.fs, opts)
	s.False(ok)
	opts.VersionID = ""
	_, ok = selectorFor(s.fs, opts)
	s.True(ok)
	opts.Pushdown = false
	_, ok = selectorFor(s.fs, opts)
	s.False(ok)
}

func TestRecordReaderTestSuite(t *testing.T) {
	suite.Run(t, new(RecordReaderTestSuite))
}
