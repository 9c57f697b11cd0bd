package storage

import (
	"context"
	"path"
	"strconv"
	"strings"

	"github.com/minio/spark-select/go/common/constant"
	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/minio/spark-select/go/common/log"
	"github.com/minio/spark-select/go/common/uri"
	"github.com/minio/spark-select/go/io/format"
	"github.com/minio/spark-select/go/storage/options/option"
	"github.com/minio/spark-select/go/storage/schema"
	"github.com/pkg/errors"
)

var formatAliases = map[string]string{
	strings.ToLower(constant.FormatSelectParquet): constant.FormatSelectParquet,
	strings.ToLower(constant.FormatSelectCSV):     constant.FormatSelectCSV,
	strings.ToLower(constant.FormatSelectJSON):    constant.FormatSelectJSON,
	"parquet": constant.FormatSelectParquet,
	"csv":     constant.FormatSelectCSV,
	"json":    constant.FormatSelectJSON,
}

// DataFrameReader describes a dataset to load: its format, schema and
// reader options.
type DataFrameReader struct {
	session *Session
	format  string
	schema  *schema.Schema
	options map[string]string
}

func newDataFrameReader(s *Session) *DataFrameReader {
	return &DataFrameReader{session: s, options: make(map[string]string)}
}

// Format names the data source: minioSelectParquet, minioSelectCSV,
// minioSelectJSON or the short forms parquet, csv and json. When unset the
// format follows the object extension.
func (r *DataFrameReader) Format(name string) *DataFrameReader {
	r.format = name
	return r
}

func (r *DataFrameReader) Schema(sc *schema.Schema) *DataFrameReader {
	r.schema = sc
	return r
}

// Option sets a reader option. Keys are pushdown, header, delimiter and
// compression, matched case-insensitively.
func (r *DataFrameReader) Option(key, value string) *DataFrameReader {
	r.options[strings.ToLower(key)] = value
	return r
}

// Load opens the dataset at location. Configuration errors are reported
// before any request is made.
func (r *DataFrameReader) Load(ctx context.Context, location string) (*Dataset, error) {
	if r.schema == nil {
		return nil, serrors.ErrSchemaIsNil
	}
	if err := r.schema.Validate(); err != nil {
		return nil, err
	}
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
	log.Info("load dataset", log.String("location", u.String()), log.String("format", opts.Format), log.Bool("pushdown", opts.Pushdown))
	return Open(ctx, f, u, r.schema, opts, r.session.metrics)
}

func (r *DataFrameReader) readOptions(u *uri.URI) (*option.ReadOptions, error) {
	cfg := r.session.cfg.Read
	opts := option.NewReadOptions()
	opts.Pushdown = cfg.Pushdown
	opts.BatchSize = cfg.BatchSize
	opts.OpenConcurrency = cfg.OpenConcurrency
	opts.VersionID = u.VersionID

	var err error
	if opts.Format, err = resolveFormat(r.format, u.Key); err != nil {
		return nil, err
	}
	for key, value := range r.options {
		switch key {
		case constant.OptionPushdown:
			if opts.Pushdown, err = strconv.ParseBool(value); err != nil {
				return nil, errors.Wrapf(serrors.ErrInvalidConfig, "option %s=%q", key, value)
			}
		case constant.OptionHeader:
			if opts.CSV.Header, err = strconv.ParseBool(value); err != nil {
				return nil, errors.Wrapf(serrors.ErrInvalidConfig, "option %s=%q", key, value)
			}
		case constant.OptionDelimiter:
			if len([]rune(value)) != 1 {
				return nil, errors.Wrapf(serrors.ErrInvalidConfig, "option %s=%q must be a single character", key, value)
			}
			opts.CSV.Delimiter = value
		case constant.OptionCompression:
			if err := format.ValidCompression(value); err != nil {
				return nil, err
			}
			opts.Compression = strings.ToLower(value)
		default:
			return nil, errors.Wrapf(serrors.ErrInvalidConfig, "unknown option %q", key)
		}
	}
	if opts.Compression == "" {
		opts.Compression = compressionOf(u.Key)
	}
	return opts, nil
}

func resolveFormat(name, key string) (string, error) {
	if name != "" {
		if f, ok := formatAliases[strings.ToLower(name)]; ok {
			return f, nil
		}
		return "", errors.Wrapf(serrors.ErrUnknownFormat, "%q", name)
	}
	ext := strings.ToLower(path.Ext(strings.TrimSuffix(strings.TrimSuffix(key, ".gz"), ".bz2")))
	switch ext {
	case constant.ParquetDataFileSuffix:
		return constant.FormatSelectParquet, nil
	case constant.CSVDataFileSuffix:
		return constant.FormatSelectCSV, nil
	case constant.JSONDataFileSuffix, constant.JSONLinesFileSuffix:
		return constant.FormatSelectJSON, nil
	}
	return "", errors.Wrapf(serrors.ErrUnknownFormat, "cannot infer the format of %q, set it explicitly", key)
}

func compressionOf(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".gz":
		return format.CompressionGzip
	case ".bz2":
		return format.CompressionBzip2
	}
	return format.CompressionNone
}
