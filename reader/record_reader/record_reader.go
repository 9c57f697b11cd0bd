package record_reader

import (
	"context"

	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/minio/spark-select/go/common/log"
	"github.com/minio/spark-select/go/common/metrics"
	"github.com/minio/spark-select/go/file/fragment"
	"github.com/minio/spark-select/go/io/fs"
	"github.com/minio/spark-select/go/io/selector"
	"github.com/minio/spark-select/go/reader/common_reader"
	"github.com/minio/spark-select/go/storage/options/option"
	"github.com/minio/spark-select/go/storage/schema"
)

// MakeRecordReader returns the rows of fragments that match every filter of
// options, narrowed to the output columns. Filters are pushed to the Select
// API when pushdown is enabled, f supports it and no object version is
// pinned, and are evaluated again locally either way.
func MakeRecordReader(
	ctx context.Context,
	s *schema.Schema,
	f fs.Fs,
	dataFragments fragment.FragmentVector,
	options *option.ReadOptions,
	m *metrics.ReadMetrics,
) array.RecordReader {
	var reader array.RecordReader
	if sel, ok := selectorFor(f, options); ok {
		r := NewSelectRecordReader(ctx, s, options, sel, dataFragments, m)
		if len(dataFragments) > 0 {
			m.LocalOnlyFilters(len(r.Query(dataFragments[0]).Residual))
		}
		reader = r
	} else {
		log.Debug("scan objects locally", log.Int("fragments", len(dataFragments)), log.Bool("pushdown", options.Pushdown))
		m.LocalOnlyFilters(len(options.Filters))
		reader = NewScanRecordReader(ctx, s, options, f, dataFragments, m)
	}

	filtered := common_reader.MakeFilterReader(reader, options.Filters)
	return common_reader.NewProjectionReader(filtered, options.OutputColumns())
}

func selectorFor(f fs.Fs, options *option.ReadOptions) (selector.Selector, bool) {
	if !options.Pushdown {
		return nil, false
	}
	sel, ok := f.(selector.Selector)
	if !ok {
		return nil, false
	}
	if options.VersionID != "" {
		log.Debug("select cannot read a pinned version, scanning", log.String("version_id", options.VersionID))
		return nil, false
	}
	return sel, true
}
