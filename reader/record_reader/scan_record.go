package record_reader

import (
	"context"

	"github.com/minio/spark-select/go/common/constant"
	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/minio/spark-select/go/common/metrics"
	"github.com/minio/spark-select/go/file/fragment"
	"github.com/minio/spark-select/go/io/format"
	"github.com/minio/spark-select/go/io/format/csv"
	"github.com/minio/spark-select/go/io/format/json"
	"github.com/minio/spark-select/go/io/format/parquet"
	"github.com/minio/spark-select/go/io/fs"
	"github.com/minio/spark-select/go/storage/options/option"
	"github.com/minio/spark-select/go/storage/schema"
	"github.com/pkg/errors"
)

// ScanRecordReader reads the fragments from the file system and decodes
// them locally. Parquet row groups whose statistics rule out a filter are
// not fetched, the remaining rows still carry every row of the object.
type ScanRecordReader struct {
	*MultiFilesSequentialReader
	schema  *schema.Schema
	options *option.ReadOptions
	fs      fs.Fs
	metrics *metrics.ReadMetrics
}

func NewScanRecordReader(
	ctx context.Context,
	s *schema.Schema,
	options *option.ReadOptions,
	f fs.Fs,
	dataFragments fragment.FragmentVector,
	m *metrics.ReadMetrics,
) *ScanRecordReader {
	r := &ScanRecordReader{
		schema:  s,
		options: options,
		fs:      f,
		metrics: m,
	}
	r.MultiFilesSequentialReader = newMultiFilesSequentialReader(ctx, s.Schema(), dataFragments, r.openFragment)
	r.onClose = r.closed
	return r
}

func (r *ScanRecordReader) openFragment(ctx context.Context, frag *fragment.Fragment) (format.Reader, error) {
	switch r.options.Format {
	case constant.FormatSelectParquet:
		return parquet.NewFileReader(ctx, r.fs, frag, r.schema, r.options)
	case constant.FormatSelectCSV:
		return csv.NewFileReader(ctx, r.fs, frag, r.schema, r.options)
	case constant.FormatSelectJSON:
		return json.NewFileReader(ctx, r.fs, frag, r.schema, r.options)
	}
	return nil, errors.Wrapf(serrors.ErrUnknownFormat, "%q", r.options.Format)
}

func (r *ScanRecordReader) closed(reader format.Reader) {
	if pr, ok := reader.(*parquet.FileReader); ok {
		r.metrics.RowGroups(pr.RowGroups())
	}
}
