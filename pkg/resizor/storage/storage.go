// Package storage defines the blob store used by the fake Resizor service to keep uploaded image bytes.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound indicates no object exists under the requested key
var ErrNotFound = errors.New("object not found")

// BlobStore persists image bytes by key
type BlobStore interface {
	Put(ctx context.Context, key string, reader io.Reader, contentType string) (int64, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
