// Package selector describes requests to an object store Select API and
// builds the SQL they carry.
package selector

import (
	"context"
	"io"

	"github.com/minio/spark-select/go/filter"
	"github.com/minio/spark-select/go/storage/schema"
)

// Selector is implemented by file systems that can evaluate a query next to
// the data. The result stream is JSON lines, one object per row keyed by
// column name.
type Selector interface {
	Select(ctx context.Context, key string, req *Request) (Results, error)
}

type Request struct {
	Query       *Query
	Format      string
	Compression string
	CSV         CSVOptions
}

type CSVOptions struct {
	Header    bool
	Delimiter string
}

type Stats struct {
	BytesScanned   int64
	BytesProcessed int64
	BytesReturned  int64
}

// Results is the response stream of a Select request. Stats is complete
// once the stream has been read to EOF.
type Results interface {
	io.ReadCloser
	Stats() Stats
}

// Query is a rendered Select statement together with the split of the
// filters it was built from.
type Query struct {
	SQL     string
	Columns []string
	// Schema is the layout the returned rows are decoded into.
	Schema *schema.Schema
	// Sources names the object column behind every field of Schema.
	Sources []string
	// Pushed are the filters rendered into the WHERE clause.
	Pushed []filter.Filter
	// Residual are the filters the store does not evaluate.
	Residual []filter.Filter
}
