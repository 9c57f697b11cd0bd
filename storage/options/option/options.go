package option

import (
	"github.com/minio/spark-select/go/common/constant"
	"github.com/minio/spark-select/go/filter"
	"github.com/minio/spark-select/go/io/selector"
)

type ReadOptions struct {
	// Filters are bound to the dataset schema and combined with AND.
	Filters     []filter.Filter
	Columns     []string
	Format      string
	CSV         selector.CSVOptions
	Compression string
	Pushdown    bool
	// VersionID pins the object version. The Select API cannot read a
	// version, so pinned reads always scan.
	VersionID string
	BatchSize int
	// OpenConcurrency bounds the objects inspected at once by Open.
	OpenConcurrency int
}

func NewReadOptions() *ReadOptions {
	return &ReadOptions{
		Filters:         make([]filter.Filter, 0),
		Columns:         make([]string, 0),
		CSV:             selector.CSVOptions{Header: true, Delimiter: ","},
		Pushdown:        true,
		BatchSize:       constant.ReadBatchSize,
		OpenConcurrency: constant.DefaultOpenConcurrency,
	}
}

func (o *ReadOptions) AddFilter(filter filter.Filter) {
	o.Filters = append(o.Filters, filter)
}

func (o *ReadOptions) AddColumn(column string) {
	o.Columns = append(o.Columns, column)
}

func (o *ReadOptions) SetColumns(columns []string) {
	o.Columns = columns
}

// OutputColumns is the projection applied to the rows handed to callers,
// empty for all declared columns.
func (o *ReadOptions) OutputColumns() []string {
	return o.Columns
}

// Clone returns a copy that can be changed without affecting o.
func (o *ReadOptions) Clone() *ReadOptions {
	c := *o
	c.Filters = append([]filter.Filter(nil), o.Filters...)
	c.Columns = append([]string(nil), o.Columns...)
	return &c
}
