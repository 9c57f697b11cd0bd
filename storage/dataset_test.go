package storage_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/minio/spark-select/go/common/utils"
	"github.com/minio/spark-select/go/config"
	"github.com/minio/spark-select/go/filter"
	"github.com/minio/spark-select/go/internal/selecttest"
	"github.com/minio/spark-select/go/io/format/parquet"
	"github.com/minio/spark-select/go/io/fs"
	"github.com/minio/spark-select/go/storage"
	"github.com/minio/spark-select/go/storage/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const peopleLocation = "cos://testbucket/people.parquet"

func writePeople(ctx context.Context, f fs.Fs, path string, names []any, ages []int32) error {
	physical := arrow.NewSchema([]arrow.Field{
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "age", Type: arrow.PrimitiveTypes.Int32},
	}, nil)
	b := array.NewRecordBuilder(memory.DefaultAllocator, physical)
	defer b.Release()
	for i, n := range names {
		if n == nil {
			b.Field(0).AppendNull()
		} else {
			b.Field(0).(*array.StringBuilder).Append(n.(string))
		}
		b.Field(1).(*array.Int32Builder).Append(ages[i])
	}
	rec := b.NewRecord()
	defer rec.Release()

	w, err := parquet.NewFileWriter(ctx, physical, f, path, 0)
	if err != nil {
		return err
	}
	if err := w.Write(rec); err != nil {
		return err
	}
	return w.Close()
}

type DatasetTestSuite struct {
	suite.Suite
	ctx     context.Context
	store   *selecttest.Fs
	reg     *prometheus.Registry
	session *storage.Session
	schema  *schema.Schema
}

func (s *DatasetTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = selecttest.New()
	s.Require().NoError(writePeople(s.ctx, s.store, "people.parquet", []any{"Alice", "Bob"}, []int32{30, 15}))

	cfg := config.Default()
	cfg.Log.Level = "warn"
	factory := fs.NewFsFactory(cfg)
	factory.Register("cos", "testbucket", s.store)
	s.reg = prometheus.NewRegistry()

	var err error
	s.session, err = storage.NewSession(storage.WithConfig(cfg), storage.WithFsFactory(factory), storage.WithRegisterer(s.reg))
	s.Require().NoError(err)

	s.schema, err = schema.ParseDDL("name string, age int not null")
	s.Require().NoError(err)
}

func (s *DatasetTestSuite) TearDownTest() {
	s.NoError(s.session.Close())
}

func (s *DatasetTestSuite) counter(name string) float64 {
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

func (s *DatasetTestSuite) load(location string) *storage.Dataset {
	ds, err := s.session.Read().Format("minioSelectParquet").Schema(s.schema).Load(s.ctx, location)
	s.Require().NoError(err)
	return ds
}

func (s *DatasetTestSuite) TestPeople() {
	ds := s.load(peopleLocation)

	rows, err := ds.Collect(s.ctx)
	s.Require().NoError(err)
	s.Equal([]storage.Row{{"Alice", int32(30)}, {"Bob", int32(15)}}, rows)

	adults, err := ds.FilterExpr("age > 19")
	s.Require().NoError(err)
	rows, err = adults.Collect(s.ctx)
	s.Require().NoError(err)
	s.Equal([]storage.Row{{"Alice", int32(30)}}, rows)

	requests := s.store.Requests()
	s.Require().Len(requests, 2)
	s.Contains(requests[1].Query.SQL, `WHERE s."age" > 19`)
	s.Equal(3.0, s.counter("spark_select_rows_returned_total"))
	s.Equal(2.0, s.counter("spark_select_select_requests_total"))
	s.Equal(1.0, s.counter("spark_select_objects_opened_total"))
}

func (s *DatasetTestSuite) TestShow() {
	ds := s.load(peopleLocation)
	var buf bytes.Buffer
	s.Require().NoError(ds.Show(s.ctx, &buf, 20))
	out := buf.String()
	s.Contains(out, "name")
	s.Contains(out, "Alice")
	s.Contains(out, "Bob")
	s.NotContains(out, "only showing")

	buf.Reset()
	s.Require().NoError(ds.Show(s.ctx, &buf, 1))
	s.Contains(buf.String(), "Alice")
	s.NotContains(buf.String(), "Bob")
	s.Contains(buf.String(), "only showing top 1 row\n")
}

func (s *DatasetTestSuite) TestPushdownMatchesLocal() {
	s.Require().NoError(writePeople(s.ctx, s.store, "more.parquet",
		[]any{"Alice", "Bob", nil, "Carol", "Dan"}, []int32{30, 15, 44, 19, 61}))
	exprs := []string{
		"age > 19",
		"age >= 19 AND name IS NOT NULL",
		"name = 'Bob' OR age > 60",
		"NOT (age IN (15, 19))",
		"name IS NULL",
		"age < 0",
	}
	remote, err := s.session.Read().Schema(s.schema).Load(s.ctx, "cos://testbucket/more.parquet")
	s.Require().NoError(err)
	local, err := s.session.Read().Schema(s.schema).Option("pushdown", "false").Load(s.ctx, "cos://testbucket/more.parquet")
	s.Require().NoError(err)

	for _, expr := range exprs {
		filtered, err := remote.FilterExpr(expr)
		s.Require().NoError(err)
		pushed, err := filtered.Collect(s.ctx)
		s.Require().NoError(err)

		filtered, err = local.FilterExpr(expr)
		s.Require().NoError(err)
		scanned, err := filtered.Collect(s.ctx)
		s.Require().NoError(err)
		s.Equal(scanned, pushed, expr)
	}
	s.Len(s.store.Requests(), len(exprs))
}

func (s *DatasetTestSuite) TestFilterIsMetadataOnly() {
	ds := s.load(peopleLocation)
	before := len(s.store.Requests())

	filtered, err := ds.Filter(filter.NewConstantFilter(filter.GreaterThan, "age", 19))
	s.Require().NoError(err)
	filtered, err = filtered.FilterExpr("name IS NOT NULL")
	s.Require().NoError(err)
	projected, err := filtered.Select("name")
	s.Require().NoError(err)

	s.Equal(before, len(s.store.Requests()))
	s.Empty(ds.Filters())
	s.Len(filtered.Filters(), 2)
	s.Equal([]string{"name", "age"}, ds.Schema().Names())
	s.Equal([]string{"name"}, projected.Schema().Names())

	_, err = ds.FilterExpr("height > 1")
	s.ErrorIs(err, serrors.ErrColumnNotExist)
	_, err = ds.FilterExpr("age > 'old'")
	s.ErrorIs(err, serrors.ErrInvalidFilter)
	_, err = ds.FilterExpr("age >")
	s.ErrorIs(err, serrors.ErrInvalidFilter)
	_, err = ds.Select("height")
	s.ErrorIs(err, serrors.ErrColumnNotExist)
	_, err = projected.Select("age")
	s.ErrorIs(err, serrors.ErrColumnNotExist)
}

func (s *DatasetTestSuite) TestSelectAndCount() {
	ds := s.load(peopleLocation)
	ages, err := ds.Select("age")
	s.Require().NoError(err)
	rows, err := ages.Collect(s.ctx)
	s.Require().NoError(err)
	s.Equal([]storage.Row{{int32(30)}, {int32(15)}}, rows)

	all, err := ds.Select("*")
	s.Require().NoError(err)
	s.Same(ds, all)

	n, err := ds.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), n)
	s.Len(s.store.Requests(), 1)

	adults, err := ds.FilterExpr("age > 19")
	s.Require().NoError(err)
	n, err = adults.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), n)
}

func (s *DatasetTestSuite) TestIdempotentReads() {
	ds := s.load(peopleLocation)
	adults, err := ds.FilterExpr("age > 19")
	s.Require().NoError(err)
	first, err := adults.Collect(s.ctx)
	s.Require().NoError(err)
	second, err := adults.Collect(s.ctx)
	s.Require().NoError(err)
	s.Equal(first, second)

	it := adults.Rows(s.ctx)
	s.True(it.Next())
	s.Equal(storage.Row{"Alice", int32(30)}, it.Row())
	s.False(it.Next())
	s.NoError(it.Err())
	it.Close()
}

func (s *DatasetTestSuite) TestOpenErrors() {
	_, err := s.session.Read().Schema(s.schema).Load(s.ctx, "cos://testbucket/missing.parquet")
	s.ErrorIs(err, serrors.ErrNotFound)

	wrong := schema.NewSchema(schema.NewField("name", schema.Int, true))
	_, err = s.session.Read().Schema(wrong).Load(s.ctx, peopleLocation)
	s.ErrorIs(err, serrors.ErrSchemaNotMatch)

	// the schema is checked before the object is looked up
	dup := schema.NewSchema(schema.NewField("a", schema.Int, true), schema.NewField("a", schema.Int, true))
	_, err = s.session.Read().Schema(dup).Load(s.ctx, "cos://testbucket/missing.parquet")
	s.ErrorIs(err, serrors.ErrInvalidSchema)

	_, err = s.session.Read().Load(s.ctx, peopleLocation)
	s.ErrorIs(err, serrors.ErrSchemaIsNil)

	_, err = s.session.Read().Format("orc").Schema(s.schema).Load(s.ctx, peopleLocation)
	s.ErrorIs(err, serrors.ErrUnknownFormat)

	_, err = s.session.Read().Schema(s.schema).Load(s.ctx, "cos://testbucket/people")
	s.ErrorIs(err, serrors.ErrUnknownFormat)

	_, err = s.session.Read().Schema(s.schema).Option("pushdown", "maybe").Load(s.ctx, peopleLocation)
	s.ErrorIs(err, serrors.ErrInvalidConfig)

	_, err = s.session.Read().Schema(s.schema).Option("colour", "blue").Load(s.ctx, peopleLocation)
	s.ErrorIs(err, serrors.ErrInvalidConfig)

	_, err = s.session.Read().Schema(s.schema).Load(s.ctx, "cos:///people.parquet")
	s.ErrorIs(err, serrors.ErrInvalidURI)
	s.Empty(s.store.Requests())
}

func (s *DatasetTestSuite) TestNullViolation() {
	s.Require().NoError(writePeople(s.ctx, s.store, "nulls.parquet", []any{nil}, []int32{1}))
	strict, err := schema.ParseDDL("name string not null, age int")
	s.Require().NoError(err)
	ds, err := s.session.Read().Schema(strict).Load(s.ctx, "cos://testbucket/nulls.parquet")
	s.Require().NoError(err)
	_, err = ds.Collect(s.ctx)
	s.ErrorIs(err, serrors.ErrNullViolation)
}

func (s *DatasetTestSuite) TestCountChecksNulls() {
	s.Require().NoError(writePeople(s.ctx, s.store, "nulls.parquet", []any{"Alice", nil}, []int32{30, 15}))
	strict, err := schema.ParseDDL("name string not null, age int")
	s.Require().NoError(err)
	ds, err := s.session.Read().Schema(strict).Load(s.ctx, "cos://testbucket/nulls.parquet")
	s.Require().NoError(err)
	_, err = ds.Count(s.ctx)
	s.ErrorIs(err, serrors.ErrNullViolation)

	// age is stored as a required column, the footer count is enough
	ages, err := schema.ParseDDL("age int not null")
	s.Require().NoError(err)
	ds, err = s.session.Read().Schema(ages).Load(s.ctx, "cos://testbucket/nulls.parquet")
	s.Require().NoError(err)
	n, err := ds.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), n)
	s.Empty(s.store.Requests())
}

func (s *DatasetTestSuite) TestIsNull() {
	s.Require().NoError(writePeople(s.ctx, s.store, "nulls.parquet", []any{"Alice", nil}, []int32{30, 15}))
	for _, pushdown := range []string{"true", "false"} {
		ds, err := s.session.Read().Schema(s.schema).Option("pushdown", pushdown).Load(s.ctx, "cos://testbucket/nulls.parquet")
		s.Require().NoError(err)
		unnamed, err := ds.FilterExpr("name IS NULL")
		s.Require().NoError(err)
		rows, err := unnamed.Collect(s.ctx)
		s.Require().NoError(err)
		s.Equal([]storage.Row{{nil, int32(15)}}, rows, "pushdown=%s", pushdown)
	}
	s.Len(s.store.Requests(), 1)
}

func (s *DatasetTestSuite) TestUnsignedColumn() {
	physical := arrow.NewSchema([]arrow.Field{{Name: "n", Type: arrow.PrimitiveTypes.Uint32}}, nil)
	b := array.NewRecordBuilder(memory.DefaultAllocator, physical)
	defer b.Release()
	b.Field(0).(*array.Uint32Builder).Append(3000000000)
	rec := b.NewRecord()
	defer rec.Release()
	w, err := parquet.NewFileWriter(s.ctx, physical, s.store, "counts.parquet", 0)
	s.Require().NoError(err)
	s.Require().NoError(w.Write(rec))
	s.Require().NoError(w.Close())

	sc, err := schema.ParseDDL("n long not null")
	s.Require().NoError(err)
	for _, pushdown := range []string{"true", "false"} {
		ds, err := s.session.Read().Schema(sc).Option("pushdown", pushdown).Load(s.ctx, "cos://testbucket/counts.parquet")
		s.Require().NoError(err)
		big, err := ds.FilterExpr("n > 5")
		s.Require().NoError(err)
		rows, err := big.Collect(s.ctx)
		s.Require().NoError(err)
		s.Equal([]storage.Row{{int64(3000000000)}}, rows, "pushdown=%s", pushdown)
	}
}

func (s *DatasetTestSuite) TestPinnedVersion() {
	ds := s.load(peopleLocation + "?versionId=3e2bd9f4")
	adults, err := ds.FilterExpr("age > 19")
	s.Require().NoError(err)
	rows, err := adults.Collect(s.ctx)
	s.Require().NoError(err)
	s.Equal([]storage.Row{{"Alice", int32(30)}}, rows)
	s.Empty(s.store.Requests())
}

func (s *DatasetTestSuite) TestPrefix() {
	parts := []string{utils.GetNewParquetFilePath("table"), utils.GetNewParquetFilePath("table")}
	for _, p := range parts {
		s.Require().NoError(writePeople(s.ctx, s.store, p, []any{"Alice", "Bob"}, []int32{30, 15}))
	}
	s.store.WriteFile("table/_SUCCESS", nil)
	s.store.WriteFile("table/.part-0.parquet.crc", []byte("crc"))
	s.store.WriteFile("table/_temporary/0/part-9.parquet", []byte("partial"))

	ds := s.load("cos://testbucket/table/")
	s.ElementsMatch(parts, ds.Objects())
	adults, err := ds.FilterExpr("age > 19")
	s.Require().NoError(err)
	rows, err := adults.Collect(s.ctx)
	s.Require().NoError(err)
	s.Equal([]storage.Row{{"Alice", int32(30)}, {"Alice", int32(30)}}, rows)

	_, err = s.session.Read().Format("parquet").Schema(s.schema).Load(s.ctx, "cos://testbucket/empty/")
	s.ErrorIs(err, serrors.ErrNotFound)
}

func (s *DatasetTestSuite) TestCSV() {
	s.store.WriteFile("people.csv", []byte("name,age\nAlice,30\nBob,15\n,44\n"))
	ds, err := s.session.Read().Schema(s.schema).Load(s.ctx, "cos://testbucket/people.csv")
	s.Require().NoError(err)
	named, err := ds.FilterExpr("age > 19 AND name IS NOT NULL")
	s.Require().NoError(err)
	rows, err := named.Collect(s.ctx)
	s.Require().NoError(err)
	s.Equal([]storage.Row{{"Alice", int32(30)}}, rows)
	s.Contains(s.store.Requests()[0].Query.SQL, `CAST(s."age" AS INT) > 19`)

	s.store.WriteFile("people.tsv", []byte("Alice\t30\nBob\t15\n"))
	ds, err = s.session.Read().Format("csv").Option("header", "false").Option("delimiter", "\t").Schema(s.schema).Load(s.ctx, "cos://testbucket/people.tsv")
	s.Require().NoError(err)
	rows, err = ds.Collect(s.ctx)
	s.Require().NoError(err)
	s.Equal([]storage.Row{{"Alice", int32(30)}, {"Bob", int32(15)}}, rows)
}

func (s *DatasetTestSuite) TestJSON() {
	s.store.WriteFile("people.json", []byte(strings.Join([]string{
		`{"name": "Alice", "age": 30}`,
		`{"name": "Bob", "age": 15, "city": "Oslo"}`,
	}, "\n")))
	ds, err := s.session.Read().Schema(s.schema).Load(s.ctx, "cos://testbucket/people.json")
	s.Require().NoError(err)
	adults, err := ds.FilterExpr("age > 19")
	s.Require().NoError(err)
	rows, err := adults.Collect(s.ctx)
	s.Require().NoError(err)
	s.Equal([]storage.Row{{"Alice", int32(30)}}, rows)
}

func TestDatasetTestSuite(t *testing.T) {
	suite.Run(t, new(DatasetTestSuite))
}

func TestDescribe(t *testing.T) {
	ctx := context.Background()
	factory := fs.NewFsFactory(nil)
	bucket := factory.MemoryBucket("data")
	require.NoError(t, writePeople(ctx, bucket, "people.parquet", []any{"Alice"}, []int32{30}))
	bucket.WriteFile("people.csv", []byte("name,age\nAlice,30\n"))
	bucket.WriteFile("people.jsonl", []byte(`{"name":"Alice","age":30}`+"\n"))
	session, err := storage.NewSession(storage.WithFsFactory(factory))
	require.NoError(t, err)
	defer session.Close()

	layout, err := session.Read().Describe(ctx, "mem://data/people.parquet")
	require.NoError(t, err)
	assert.Equal(t, "name", layout.Field(0).Name)
	assert.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Int32, layout.Field(1).Type))

	layout, err = session.Read().Describe(ctx, "mem://data/people.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, len(layout.Fields()))
	assert.Equal(t, "age", layout.Field(1).Name)

	layout, err = session.Read().Option("header", "false").Describe(ctx, "mem://data/people.csv")
	require.NoError(t, err)
	assert.Equal(t, "_1", layout.Field(0).Name)

	layout, err = session.Read().Describe(ctx, "mem://data/people.jsonl")
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "name"}, []string{layout.Field(0).Name, layout.Field(1).Name})

	_, err = session.Read().Describe(ctx, "mem://data/missing.parquet")
	assert.ErrorIs(t, err, serrors.ErrNotFound)
}
