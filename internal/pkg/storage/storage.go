package storage

import (
	"context"
	"io"
)

// Config holds object storage settings
type Config struct {
	S3Endpoint  string // custom endpoint for MinIO, empty for AWS
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
}

// FileInfo describes a stored object
type FileInfo struct {
	Key  string
	Size int64
	URL  string
}

// Storage is the object store used for trip media
type Storage interface {
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	GetURL(key string) string
}
