package main

import (
	stdcsv "encoding/csv"
	"io"
	"strconv"

	"github.com/apache/arrow/go/v12/arrow"
	jsoniter "github.com/json-iterator/go"
	"github.com/minio/spark-select/go/storage/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newSchemaCmd(opts *rootOptions) *cobra.Command {
	var rf readFlags
	cmd := &cobra.Command{
		Use:   "schema LOCATION",
		Short: "Print the columns of an object",
		Long: `Prints the columns stored in the object. With --schema the declared schema
is checked against the object and printed instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			if rf.schema == "" {
				layout, err := r.Describe(ctx, args[0])
				if err != nil {
					return err
				}
				return writeColumns(opts.stdout, opts.output, layout.Fields())
			}
			ds, err := r.Load(ctx, args[0])
			if err != nil {
				return err
			}
			return writeColumns(opts.stdout, opts.output, ds.Schema().Schema().Fields())
		},
	}
	rf.register(cmd)
	return cmd
}

func typeName(t arrow.DataType) string {
	if dt, ok := schema.FromArrowType(t); ok {
		return dt.String()
	}
	return t.String()
}

func writeColumns(w io.Writer, output string, fields []arrow.Field) error {
	header := []string{"column", "type", "nullable"}
	rows := make([][]string, len(fields))
	for i, f := range fields {
		rows[i] = []string{f.Name, typeName(f.Type), strconv.FormatBool(f.Nullable)}
	}

	switch output {
	case outputJSON:
		stream := jsoniter.ConfigCompatibleWithStandardLibrary.BorrowStream(w)
		defer jsoniter.ConfigCompatibleWithStandardLibrary.ReturnStream(stream)
		for _, f := range fields {
			writeJSONObject(stream, header, []any{f.Name, typeName(f.Type), f.Nullable})
			stream.WriteRaw("\n")
		}
		return stream.Flush()
	case outputCSV:
		cw := stdcsv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return err
		}
		if err := cw.WriteAll(rows); err != nil {
			return err
		}
		return cw.Error()
	default:
		table := tablewriter.NewWriter(w)
		table.SetHeader(header)
		table.SetAutoFormatHeaders(false)
		table.AppendBulk(rows)
		table.Render()
		return nil
	}
}
