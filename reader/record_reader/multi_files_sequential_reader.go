package record_reader

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/minio/spark-select/go/common/log"
	"github.com/minio/spark-select/go/file/fragment"
	"github.com/minio/spark-select/go/io/format"
)

type openFunc func(ctx context.Context, frag *fragment.Fragment) (format.Reader, error)

// MultiFilesSequentialReader reads the fragments one after another through
// the format.Reader that open returns for each of them.
type MultiFilesSequentialReader struct {
	ctx        context.Context
	schema     *arrow.Schema
	fragments  fragment.FragmentVector
	open       openFunc
	onClose    func(format.Reader)
	nextPos    int
	currReader format.Reader
	rec        arrow.Record
	err        error
	ref        int64
}

func newMultiFilesSequentialReader(ctx context.Context, schema *arrow.Schema, fragments fragment.FragmentVector, open openFunc) *MultiFilesSequentialReader {
	return &MultiFilesSequentialReader{
		ctx:       ctx,
		schema:    schema,
		fragments: fragments,
		open:      open,
		ref:       1,
	}
}

func (m *MultiFilesSequentialReader) Retain() {
	atomic.AddInt64(&m.ref, 1)
}

func (m *MultiFilesSequentialReader) Release() {
	if atomic.AddInt64(&m.ref, -1) == 0 {
		if m.rec != nil {
			m.rec.Release()
			m.rec = nil
		}
		m.closeCurrent()
	}
}

func (m *MultiFilesSequentialReader) Schema() *arrow.Schema {
	return m.schema
}

func (m *MultiFilesSequentialReader) Next() bool {
	if m.rec != nil {
		m.rec.Release()
		m.rec = nil
	}
	if m.err != nil {
		return false
	}
	for {
		if m.currReader == nil {
			if m.nextPos >= len(m.fragments) {
				return false
			}
			if err := m.ctx.Err(); err != nil {
				m.err = err
				return false
			}
			frag := m.fragments[m.nextPos]
			log.Debug("open fragment", log.String("path", frag.Path()), log.Int64("id", frag.FragmentId()))
			reader, err := m.open(m.ctx, frag)
			if err != nil {
				m.err = err
				return false
			}
			m.nextPos++
			m.currReader = reader
		}

		rec, err := m.currReader.Read()
		if err != nil {
			m.closeCurrent()
			if err == io.EOF {
				continue
			}
			// errors in the middle of an object end the whole read
			m.err = err
			return false
		}
		if rec.NumRows() == 0 {
			rec.Release()
			continue
		}
		m.rec = rec
		return true
	}
}

func (m *MultiFilesSequentialReader) closeCurrent() {
	if m.currReader == nil {
		return
	}
	if err := m.currReader.Close(); err != nil {
		log.Warn("close fragment reader", log.Err(err))
	}
	if m.onClose != nil {
		m.onClose(m.currReader)
	}
	m.currReader = nil
}

func (m *MultiFilesSequentialReader) Record() arrow.Record {
	return m.rec
}

func (m *MultiFilesSequentialReader) Err() error {
	return m.err
}
