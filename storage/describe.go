package storage

import (
	"context"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/minio/spark-select/go/common/arrow_util"
	"github.com/minio/spark-select/go/common/constant"
	"github.com/minio/spark-select/go/common/uri"
	"github.com/minio/spark-select/go/io/format/csv"
	"github.com/minio/spark-select/go/io/format/json"
)

// Describe returns the columns stored in the object at location, or in the
// first object below it for a prefix, without a declared schema. Parquet
// reports its footer schema, CSV its header with every column as string
// and JSON the keys of its first row.
func (r *DataFrameReader) Describe(ctx context.Context, location string) (*arrow.Schema, error) {
	u, err := uri.Parse(location)
	if err != nil {
		return nil, err
	}
	opts, err := r.readOptions(u)
	if err != nil {
		return nil, err
	}
	f, err := r.session.factory.Create(ctx, u)
	if err != nil {
		return nil, err
	}
	fragments, err := listFragments(ctx, f, u)
	if err != nil {
		return nil, err
	}
	key := fragments[0].Path()

	switch opts.Format {
	case constant.FormatSelectParquet:
		reader, file, err := arrow_util.MakeArrowFileReader(ctx, f, key, opts.BatchSize)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return reader.Schema()
	case constant.FormatSelectCSV:
		names, err := csv.Header(ctx, f, key, opts)
		if err != nil {
			return nil, err
		}
		fields := make([]arrow.Field, len(names))
		for i, n := range names {
			fields[i] = arrow.Field{Name: n, Type: arrow.BinaryTypes.String, Nullable: true}
		}
		return arrow.NewSchema(fields, nil), nil
	default:
		return json.Sample(ctx, f, key, opts.Compression)
	}
}
