package file

import (
	"bytes"
	"context"

	"github.com/minio/minio-go/v7"
)

var _ File = (*MinioFile)(nil)

// MinioFile reads an object with ranged GET requests.
type MinioFile struct {
	*minio.Object
	size int64
}

func (f *MinioFile) Size() int64 {
	return f.size
}

func NewMinioFile(ctx context.Context, client *minio.Client, bucketName, fileName string, info minio.ObjectInfo) (*MinioFile, error) {
	opts := minio.GetObjectOptions{VersionID: info.VersionID}
	object, err := client.GetObject(ctx, bucketName, fileName, opts)
	if err != nil {
		return nil, err
	}
	return &MinioFile{Object: object, size: info.Size}, nil
}

// MinioWriter uploads the buffered content with a single PUT on Close.
type MinioWriter struct {
	*MemoryWriter
}

func NewMinioWriter(ctx context.Context, client *minio.Client, bucketName, fileName string) *MinioWriter {
	return &MinioWriter{MemoryWriter: NewMemoryWriter(func(b []byte) error {
		_, err := client.PutObject(ctx, bucketName, fileName, bytes.NewReader(b), int64(len(b)), minio.PutObjectOptions{})
		return err
	})}
}
