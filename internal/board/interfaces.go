package board

import (
	"context"
	"io"
	"time"
)

// Fetcher retrieves a single URL. Implementations never retry; every failure is
// returned to the caller, labeled for logging.
type Fetcher interface {
	FetchText(ctx context.Context, url, label string) (string, error)
	FetchJSON(ctx context.Context, url, label string, dst any) error
}

// BlobStore writes a snapshot artifact and returns a location for it.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Notifier announces a finished run.
type Notifier interface {
	Notify(ctx context.Context, content string) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}

// Hasher computes content digests.
type Hasher interface {
	Hash(data []byte) (string, error)
}
