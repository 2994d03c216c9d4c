package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned when the bucket or key does not exist.
var ErrObjectNotFound = errors.New("storage: object not found")

// Storage defines the object storage operations used by the email service:
// reading templates and attachments, listing partials and archiving
// rendered messages.
type Storage interface {
	io.Closer

	// PutObject stores data and returns object metadata.
	PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error)
	// GetObject opens the object for reading. The caller closes the reader.
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error)
	// StatObject returns object metadata without reading its contents.
	StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error)
	// ListObjects lists objects under a prefix, up to limit (0 means all).
	ListObjects(ctx context.Context, bucket, prefix string, limit int) ([]ObjectInfo, error)
}

// PutOptions configures upload behavior.
type PutOptions struct {
	// Size is the content length, or -1 when unknown.
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes object metadata.
type ObjectInfo struct {
	Bucket      string
	Key         string
	Size        int64
	ETag        string
	ContentType string
	Metadata    map[string]string
	UpdatedAt   time.Time
}

// ReadAll fetches an object fully into memory.
func ReadAll(ctx context.Context, s Storage, bucket, key string) ([]byte, error) {
	rc, _, err := s.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}
