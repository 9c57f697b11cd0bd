package file

import (
	"os"
)

var _ File = (*LocalFile)(nil)

type LocalFile struct {
	*os.File
	size int64
}

func (l *LocalFile) Size() int64 {
	return l.size
}

func NewLocalFile(f *os.File) (*LocalFile, error) {
	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return &LocalFile{File: f, size: stat.Size()}, nil
}
