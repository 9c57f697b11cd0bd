package fs

import (
	"context"
	"sort"
	"strings"
	"sync"

	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/minio/spark-select/go/io/fs/file"
	"github.com/pkg/errors"
)

var _ Fs = (*MemoryFs)(nil)

type MemoryFs struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func (m *MemoryFs) OpenFile(_ context.Context, path string) (file.File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.files[path]
	if !ok {
		return nil, errors.Wrapf(serrors.ErrNotFound, "mem: %s", path)
	}
	return file.NewMemoryFile(b), nil
}

func (m *MemoryFs) CreateFile(_ context.Context, path string) (file.Writer, error) {
	return file.NewMemoryWriter(func(b []byte) error {
		m.put(path, b)
		return nil
	}), nil
}

// WriteFile stores content under path, replacing any previous object.
func (m *MemoryFs) WriteFile(path string, content []byte) {
	m.put(path, content)
}

func (m *MemoryFs) put(path string, b []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = append([]byte(nil), b...)
}

func (m *MemoryFs) DeleteFile(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	return nil
}

func (m *MemoryFs) List(_ context.Context, prefix string) ([]FileEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ret := make([]FileEntry, 0)
	for p, b := range m.files {
		if strings.HasPrefix(p, prefix) {
			ret = append(ret, FileEntry{Path: p, Size: int64(len(b))})
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Path < ret[j].Path })
	return ret, nil
}

func (m *MemoryFs) ReadFile(_ context.Context, path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.files[path]
	if !ok {
		return nil, errors.Wrapf(serrors.ErrNotFound, "mem: %s", path)
	}
	return append([]byte(nil), b...), nil
}

func (m *MemoryFs) Exist(_ context.Context, path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[path]
	return ok, nil
}

func NewMemoryFs() *MemoryFs {
	return &MemoryFs{
		files: make(map[string][]byte),
	}
}
