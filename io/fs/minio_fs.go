package fs

import (
	"context"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/spark-select/go/common/constant"
	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/minio/spark-select/go/common/log"
	"github.com/minio/spark-select/go/common/retry"
	"github.com/minio/spark-select/go/common/uri"
	"github.com/minio/spark-select/go/config"
	"github.com/minio/spark-select/go/io/fs/file"
	"github.com/minio/spark-select/go/io/selector"
	"github.com/pkg/errors"
)

var (
	_ Fs                = (*MinioFs)(nil)
	_ selector.Selector = (*MinioFs)(nil)
)

// MinioFs is a bucket of an S3 compatible store. It also serves Select
// requests.
type MinioFs struct {
	client     *minio.Client
	bucketName string
	versionKey string
	versionID  string
	retry      config.RetryConfig
}

func (fs *MinioFs) OpenFile(ctx context.Context, path string) (file.File, error) {
	info, err := fs.stat(ctx, path)
	if err != nil {
		return nil, err
	}
	return file.NewMinioFile(ctx, fs.client, fs.bucketName, path, info)
}

func (fs *MinioFs) CreateFile(ctx context.Context, path string) (file.Writer, error) {
	return file.NewMinioWriter(ctx, fs.client, fs.bucketName, path), nil
}

func (fs *MinioFs) DeleteFile(ctx context.Context, path string) error {
	return fs.client.RemoveObject(ctx, fs.bucketName, path, minio.RemoveObjectOptions{})
}

func (fs *MinioFs) List(ctx context.Context, path string) ([]FileEntry, error) {
	var ret []FileEntry
	err := retry.Do(ctx, fs.retry, "list", func(ctx context.Context) error {
		ret = make([]FileEntry, 0)
		for objInfo := range fs.client.ListObjects(ctx, fs.bucketName, minio.ListObjectsOptions{Prefix: path, Recursive: true}) {
			if objInfo.Err != nil {
				log.Warn("list object error", log.String("bucket", fs.bucketName), log.String("prefix", path), log.Err(objInfo.Err))
				return fs.wrapError(objInfo.Err, path)
			}
			if strings.HasSuffix(objInfo.Key, "/") {
				continue
			}
			ret = append(ret, FileEntry{Path: objInfo.Key, Size: objInfo.Size})
		}
		return nil
	})
	return ret, err
}

func (fs *MinioFs) ReadFile(ctx context.Context, path string) ([]byte, error) {
	f, err := fs.OpenFile(ctx, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (fs *MinioFs) Exist(ctx context.Context, path string) (bool, error) {
	_, err := fs.stat(ctx, path)
	if errors.Is(err, serrors.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (fs *MinioFs) stat(ctx context.Context, path string) (minio.ObjectInfo, error) {
	var info minio.ObjectInfo
	err := retry.Do(ctx, fs.retry, "stat", func(ctx context.Context) error {
		var err error
		opts := minio.StatObjectOptions{}
		if path == fs.versionKey {
			opts.VersionID = fs.versionID
		}
		info, err = fs.client.StatObject(ctx, fs.bucketName, path, opts)
		return fs.wrapError(err, path)
	})
	return info, err
}

// Select runs req against the object at key and streams the rows as JSON
// lines. Only starting the request is retried.
func (fs *MinioFs) Select(ctx context.Context, key string, req *selector.Request) (selector.Results, error) {
	input, err := inputSerialization(req)
	if err != nil {
		return nil, err
	}
	output := &minio.JSONOutputOptions{}
	output.SetRecordDelimiter("\n")
	opts := minio.SelectObjectOptions{
		Expression:          req.Query.SQL,
		ExpressionType:      minio.QueryExpressionTypeSQL,
		InputSerialization:  input,
		OutputSerialization: minio.SelectObjectOutputSerialization{JSON: output},
	}

	var res *minio.SelectResults
	err = retry.Do(ctx, fs.retry, "select", func(ctx context.Context) error {
		var err error
		res, err = fs.client.SelectObjectContent(ctx, fs.bucketName, key, opts)
		return fs.wrapError(err, key)
	})
	if err != nil {
		return nil, err
	}
	return &minioSelectResults{SelectResults: res}, nil
}

func inputSerialization(req *selector.Request) (minio.SelectObjectInputSerialization, error) {
	var in minio.SelectObjectInputSerialization
	switch req.Format {
	case constant.FormatSelectParquet:
		in.Parquet = &minio.ParquetInputOptions{}
		return in, nil
	case constant.FormatSelectCSV:
		csv := &minio.CSVInputOptions{}
		if req.CSV.Header {
			csv.SetFileHeaderInfo(minio.CSVFileHeaderInfoUse)
		} else {
			csv.SetFileHeaderInfo(minio.CSVFileHeaderInfoNone)
		}
		if req.CSV.Delimiter != "" {
			csv.SetFieldDelimiter(req.CSV.Delimiter)
		}
		in.CSV = csv
	case constant.FormatSelectJSON:
		json := &minio.JSONInputOptions{}
		json.SetType(minio.JSONLinesType)
		in.JSON = json
	default:
		return in, errors.Wrapf(serrors.ErrUnknownFormat, "%q", req.Format)
	}

	switch strings.ToLower(req.Compression) {
	case "", "none":
		in.CompressionType = minio.SelectCompressionNONE
	case "gzip":
		in.CompressionType = minio.SelectCompressionGZIP
	case "bzip2":
		in.CompressionType = minio.SelectCompressionBZIP
	default:
		return in, errors.Wrapf(serrors.ErrInvalidConfig, "unknown compression %q", req.Compression)
	}
	return in, nil
}

type minioSelectResults struct {
	*minio.SelectResults
}

func (r *minioSelectResults) Stats() selector.Stats {
	st := r.SelectResults.Stats()
	if st == nil {
		return selector.Stats{}
	}
	return selector.Stats{
		BytesScanned:   st.BytesScanned,
		BytesProcessed: st.BytesProcessed,
		BytesReturned:  st.BytesReturned,
	}
}

func (fs *MinioFs) wrapError(err error, path string) error {
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return errors.Wrapf(serrors.ErrNotFound, "%s/%s", fs.bucketName, path)
	}
	return errors.Wrapf(err, "%s/%s", fs.bucketName, path)
}

func (fs *MinioFs) Bucket() string {
	return fs.bucketName
}

// NewMinioFs connects to the bucket named by u. An endpoint in u wins over
// the configured one.
func NewMinioFs(u *uri.URI, cfg *config.Config) (*MinioFs, error) {
	endpoint := u.Endpoint
	secure := u.Secure
	if endpoint == "" {
		endpoint = strings.TrimPrefix(strings.TrimPrefix(cfg.S3.Endpoint, "https://"), "http://")
		secure = !cfg.S3.Insecure && !strings.HasPrefix(cfg.S3.Endpoint, "http://")
	}
	if endpoint == "" {
		return nil, errors.Wrapf(serrors.ErrNoEndpoint, "%s", u)
	}

	region := u.Region
	if region == "" {
		region = cfg.S3.Region
	}
	lookup := minio.BucketLookupDNS
	if u.PathStyle || (u.Endpoint == "" && cfg.S3.PathStyle) {
		lookup = minio.BucketLookupPath
	}
	if cfg.S3.AccessKeyID == "" {
		log.Warn("no access key configured, using anonymous requests", log.String("endpoint", endpoint))
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, cfg.S3.SessionToken),
		Secure:       secure,
		Region:       region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create client for %s", endpoint)
	}

	log.Debug("minio fs infos", log.String("endpoint", endpoint), log.String("bucket", u.Bucket), log.Bool("secure", secure))
	return &MinioFs{
		client:     cli,
		bucketName: u.Bucket,
		versionKey: u.Key,
		versionID:  u.VersionID,
		retry:      cfg.Retry,
	}, nil
}
