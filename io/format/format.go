package format

import (
	"bufio"
	"compress/bzip2"
	"io"
	"strings"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/klauspost/compress/gzip"
	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/pkg/errors"
)

// Reader yields the rows of one object as records in the declared layout.
// Read returns io.EOF after the last record. The caller owns the returned
// record.
type Reader interface {
	Read() (arrow.Record, error)
	Close() error
}

type Writer interface {
	Write(record arrow.Record) error
	Count() int64
	Close() error
}

const (
	CompressionNone  = "none"
	CompressionGzip  = "gzip"
	CompressionBzip2 = "bzip2"
)

// ValidCompression reports an ErrInvalidConfig for unknown compression
// names.
func ValidCompression(compression string) error {
	switch strings.ToLower(compression) {
	case "", CompressionNone, CompressionGzip, CompressionBzip2:
		return nil
	}
	return errors.Wrapf(serrors.ErrInvalidConfig, "unknown compression %q", compression)
}

// Decompress wraps r so that it yields the decompressed content of an
// object stored with the given compression.
func Decompress(r io.Reader, compression string) (io.Reader, error) {
	switch strings.ToLower(compression) {
	case "", CompressionNone:
		return r, nil
	case CompressionGzip:
		zr, err := gzip.NewReader(bufio.NewReader(r))
		if err != nil {
			return nil, errors.Wrap(err, "open gzip stream")
		}
		return zr, nil
	case CompressionBzip2:
		return bzip2.NewReader(bufio.NewReader(r)), nil
	}
	return nil, errors.Wrapf(serrors.ErrInvalidConfig, "unknown compression %q", compression)
}
