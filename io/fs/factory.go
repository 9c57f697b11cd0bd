package fs

import (
	"context"
	"sync"

	"github.com/minio/spark-select/go/common/constant"
	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/minio/spark-select/go/common/uri"
	"github.com/minio/spark-select/go/config"
	"github.com/pkg/errors"
)

// Factory creates the file system serving a location. In-memory buckets
// live as long as the factory.
type Factory struct {
	cfg *config.Config

	mu         sync.Mutex
	memory     map[string]*MemoryFs
	minio      map[string]*MinioFs
	registered map[string]Fs
}

// Register makes Create return fs for every location in bucket under
// scheme.
func (f *Factory) Register(scheme, bucket string, fs Fs) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered[scheme+"://"+bucket] = fs
}

func (f *Factory) Create(_ context.Context, u *uri.URI) (Fs, error) {
	f.mu.Lock()
	fs, ok := f.registered[u.Scheme+"://"+u.Bucket]
	f.mu.Unlock()
	if ok {
		return fs, nil
	}
	switch u.Scheme {
	case constant.SchemeMemory:
		return f.MemoryBucket(u.Bucket), nil
	case constant.SchemeFile:
		return NewLocalFs(), nil
	case constant.SchemeCOS, constant.SchemeS3, constant.SchemeS3A, constant.SchemeHTTP, constant.SchemeHTTPS:
		return f.minioBucket(u)
	default:
		return nil, errors.Wrapf(serrors.ErrUnknownFs, "scheme %q", u.Scheme)
	}
}

// MemoryBucket returns the in-memory bucket name, creating it on first use.
func (f *Factory) MemoryBucket(name string) *MemoryFs {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.memory[name]
	if !ok {
		m = NewMemoryFs()
		f.memory[name] = m
	}
	return m
}

func (f *Factory) minioBucket(u *uri.URI) (*MinioFs, error) {
	key := u.Endpoint + "|" + u.Bucket + "|" + u.Key + "|" + u.VersionID
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.minio[key]; ok {
		return m, nil
	}
	m, err := NewMinioFs(u, f.cfg)
	if err != nil {
		return nil, err
	}
	f.minio[key] = m
	return m, nil
}

func NewFsFactory(cfg *config.Config) *Factory {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Factory{
		cfg:    cfg,
		memory: make(map[string]*MemoryFs),
		minio:  make(map[string]*MinioFs),

		registered: make(map[string]Fs),
	}
}

// BuildFileSystem parses location and returns a file system for it together
// with the parsed location.
func BuildFileSystem(ctx context.Context, location string, cfg *config.Config) (Fs, *uri.URI, error) {
	u, err := uri.Parse(location)
	if err != nil {
		return nil, nil, err
	}
	fs, err := NewFsFactory(cfg).Create(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	return fs, u, nil
}
