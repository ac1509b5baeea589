package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no document exists for the requested id.
var ErrNotFound = errors.New("document not found")

// DocumentStore persists registered documents. Implementations must be
// concurrency-safe, and Create must be atomic: either the document with all
// of its child rows becomes visible, or nothing does.
type DocumentStore interface {
	// Create durably stores the document, assigning its identity and
	// registration metadata. The caller's ID/RegDate/RegNumber are ignored.
	Create(ctx context.Context, doc Document) (Document, error)

	// GetByID returns the document with the given identity, or ErrNotFound.
	GetByID(ctx context.Context, id int64) (Document, error)

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error

	// Close releases storage resources.
	Close() error
}
