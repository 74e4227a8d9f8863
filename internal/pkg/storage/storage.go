// Package storage stores store snapshots in a single object storage bucket.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound indicates the requested key does not exist in the bucket.
var ErrObjectNotFound = errors.New("storage: object not found")

// Storage defines the object operations used for snapshots. Every
// implementation is bound to one bucket at construction time.
type Storage interface {
	io.Closer

	// PutObject stores size bytes read from r under key.
	PutObject(ctx context.Context, key string, r io.Reader, size int64, opts PutOptions) (ObjectInfo, error)
	// GetObject returns the object body. The caller closes it.
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)
	// ListObjects lists every object whose key starts with prefix, ordered by key.
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// PutOptions configures upload behavior.
type PutOptions struct {
	// ContentType is the MIME type for the object.
	ContentType string
	// Metadata includes custom key/value metadata.
	Metadata map[string]string
}

// ObjectInfo describes object metadata.
type ObjectInfo struct {
	Key       string
	Size      int64
	ETag      string
	UpdatedAt time.Time
}
