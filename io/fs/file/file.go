package file

import "io"

// File is an open object. Parquet footers are read through ReaderAt, so
// implementations backed by a remote store issue ranged requests.
type File interface {
	io.Reader
	io.ReaderAt
	io.Seeker
	io.Closer
	Size() int64
}

// Writer is a file being created. Its content becomes visible on Close.
type Writer interface {
	io.Writer
	io.Closer
}
