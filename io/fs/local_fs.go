package fs

import (
	"context"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/minio/spark-select/go/io/fs/file"
	"github.com/pkg/errors"
)

var _ Fs = (*LocalFS)(nil)

type LocalFS struct{}

func (l *LocalFS) OpenFile(_ context.Context, path string) (file.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapLocalError(err, path)
	}
	lf, err := file.NewLocalFile(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return lf, nil
}

func (l *LocalFS) CreateFile(_ context.Context, path string) (file.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.Create(path)
}

func (l *LocalFS) DeleteFile(_ context.Context, path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// List walks the directory part of prefix and returns the regular files
// whose path starts with prefix.
func (l *LocalFS) List(_ context.Context, prefix string) ([]FileEntry, error) {
	root := prefix
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		root = filepath.Dir(prefix)
	}
	ret := make([]FileEntry, 0)
	err := filepath.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasPrefix(path, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		ret = append(ret, FileEntry{Path: path, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, wrapLocalError(err, prefix)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Path < ret[j].Path })
	return ret, nil
}

func (l *LocalFS) ReadFile(_ context.Context, path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapLocalError(err, path)
	}
	return b, nil
}

func (l *LocalFS) Exist(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	}
	return false, err
}

func wrapLocalError(err error, path string) error {
	if os.IsNotExist(err) {
		return errors.Wrapf(serrors.ErrNotFound, "file: %s", path)
	}
	return errors.Wrapf(err, "file: %s", path)
}

func NewLocalFs() *LocalFS {
	return &LocalFS{}
}
