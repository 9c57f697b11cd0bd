package fs

import (
	"context"

	"github.com/minio/spark-select/go/io/fs/file"
)

// Fs is a flat namespace of objects addressed by key. Directories exist
// only as key prefixes.
type Fs interface {
	// OpenFile opens an existing object, a missing one is ErrNotFound.
	OpenFile(ctx context.Context, path string) (file.File, error)
	CreateFile(ctx context.Context, path string) (file.Writer, error)
	DeleteFile(ctx context.Context, path string) error
	// List returns the objects below prefix sorted by path.
	List(ctx context.Context, prefix string) ([]FileEntry, error)
	ReadFile(ctx context.Context, path string) ([]byte, error)
	Exist(ctx context.Context, path string) (bool, error)
}

type FileEntry struct {
	Path string
	Size int64
}
