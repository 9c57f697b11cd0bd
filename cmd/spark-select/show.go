package main

import (
	"context"
	stdcsv "encoding/csv"
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/minio/spark-select/go/storage"
	"github.com/minio/spark-select/go/storage/schema"
	"github.com/spf13/cobra"
)

type readFlags struct {
	schema  string
	format  string
	options []string
}

func (f *readFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.schema, "schema", "", `Declared schema, for example "name string, age int not null"`)
	cmd.Flags().StringVar(&f.format, "format", "", "Data source format (minioSelectParquet, minioSelectCSV, minioSelectJSON). Inferred from the object extension when empty.")
	cmd.Flags().StringArrayVar(&f.options, "option", nil, "Reader option as key=value (pushdown, header, delimiter, compression). Repeatable.")
}

func (f *readFlags) reader(session *storage.Session) (*storage.DataFrameReader, error) {
	r := session.Read().Format(f.format)
	for _, o := range f.options {
		key, value, ok := strings.Cut(o, "=")
		if !ok {
			return nil, fmt.Errorf("option %q is not key=value", o)
		}
		r.Option(strings.TrimSpace(key), value)
	}
	if f.schema != "" {
		sc, err := schema.ParseDDL(f.schema)
		if err != nil {
			return nil, err
		}
		r.Schema(sc)
	}
	return r, nil
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	var (
		rf      readFlags
		filters []string
		columns []string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "show LOCATION",
		Short: "Print the rows of an object that match the filters",
		Example: `  spark-select show --schema "name string, age int not null" --filter "age > 19" cos://testbucket/people.parquet
  spark-select show --schema "name string, age int" --option header=false -o csv s3://bucket/people.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rf.schema == "" {
				return fmt.Errorf("--schema is required")
			}
			session, err := opts.newSession()
			if err != nil {
				return err
			}
			defer session.Close()

			r, err := rf.reader(session)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			ds, err := r.Load(ctx, args[0])
			if err != nil {
				return err
			}
			for _, expr := range filters {
				if ds, err = ds.FilterExpr(expr); err != nil {
					return err
				}
			}
			if len(columns) > 0 {
				if ds, err = ds.Select(columns...); err != nil {
					return err
				}
			}
			return writeDataset(ctx, opts.stdout, opts.output, ds, limit)
		},
	}
	rf.register(cmd)
	cmd.Flags().StringArrayVar(&filters, "filter", nil, `Filter expression such as "age > 19 AND name IS NOT NULL". Repeated filters are combined with AND.`)
	cmd.Flags().StringSliceVar(&columns, "select", nil, "Columns to print, all declared columns when empty.")
	cmd.Flags().IntVarP(&limit, "num", "n", 20, "Number of rows to print, 0 for all.")
	return cmd
}

func writeDataset(ctx context.Context, w io.Writer, output string, ds *storage.Dataset, limit int) error {
	if output == outputTable {
		return ds.Show(ctx, w, limit)
	}

	names := ds.Schema().Names()
	var write func(storage.Row) error
	var flush func() error
	switch output {
	case outputJSON:
		stream := jsoniter.ConfigCompatibleWithStandardLibrary.BorrowStream(w)
		defer jsoniter.ConfigCompatibleWithStandardLibrary.ReturnStream(stream)
		write = func(row storage.Row) error {
			writeJSONObject(stream, names, row)
			stream.WriteRaw("\n")
			return stream.Error
		}
		flush = stream.Flush
	case outputCSV:
		cw := stdcsv.NewWriter(w)
		if err := cw.Write(names); err != nil {
			return err
		}
		write = func(row storage.Row) error {
			record := row.Strings()
			for i, v := range row {
				if v == nil {
					record[i] = ""
				}
			}
			return cw.Write(record)
		}
		flush = func() error {
			cw.Flush()
			return cw.Error()
		}
	}

	it := ds.Rows(ctx)
	defer it.Close()
	for n := 0; (limit <= 0 || n < limit) && it.Next(); n++ {
		if err := write(it.Row()); err != nil {
			return err
		}
	}
	if err := it.Err(); err != nil {
		return err
	}
	return flush()
}

// writeJSONObject writes row as an object whose keys keep the column order.
func writeJSONObject(stream *jsoniter.Stream, names []string, values []any) {
	stream.WriteObjectStart()
	for i, name := range names {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(name)
		stream.WriteVal(values[i])
	}
	stream.WriteObjectEnd()
}
