// Package storage persists generated images to the local filesystem or an
// S3-compatible bucket.
package storage

import (
	"context"
	"io"
)

// FileStore is object storage addressed by forward-slash keys relative to the
// store root. Implementations are safe for concurrent use.
type FileStore interface {
	// Put stores r under key, replacing any existing object, and returns a
	// location a user can open.
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)

	// Get opens key for reading. A missing key yields an error wrapping
	// os.ErrNotExist.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	Exists(ctx context.Context, key string) (bool, error)
}
