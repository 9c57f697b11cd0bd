package file

import (
	"bytes"
	"errors"
	"io"
)

var errInvalid = errors.New("invalid argument")

var _ File = (*MemoryFile)(nil)

type MemoryFile struct {
	b []byte
	i int64
}

func (f *MemoryFile) Read(b []byte) (int, error) {
	n, err := f.ReadAt(b, f.i)
	f.i += int64(n)
	if err == io.EOF && n > 0 {
		return n, nil
	}
	return n, err
}

func (f *MemoryFile) ReadAt(b []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, errInvalid
	}
	if off >= int64(len(f.b)) {
		return 0, io.EOF
	}
	n = copy(b, f.b[off:])
	if n < len(b) {
		return n, io.EOF
	}
	return n, nil
}

func (f *MemoryFile) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = f.i + offset
	case io.SeekEnd:
		abs = int64(len(f.b)) + offset
	default:
		return 0, errInvalid
	}
	if abs < 0 {
		return 0, errInvalid
	}
	f.i = abs
	return abs, nil
}

func (f *MemoryFile) Size() int64 {
	return int64(len(f.b))
}

func (f *MemoryFile) Close() error {
	return nil
}

func (f *MemoryFile) Bytes() []byte {
	return f.b
}

func NewMemoryFile(b []byte) *MemoryFile {
	return &MemoryFile{b: b}
}

// MemoryWriter buffers writes and hands the content to commit on Close.
type MemoryWriter struct {
	buf    bytes.Buffer
	commit func([]byte) error
	closed bool
}

func (w *MemoryWriter) Write(b []byte) (int, error) {
	if w.closed {
		return 0, errInvalid
	}
	return w.buf.Write(b)
}

func (w *MemoryWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.commit(w.buf.Bytes())
}

func NewMemoryWriter(commit func([]byte) error) *MemoryWriter {
	return &MemoryWriter{commit: commit}
}
