// Package storage defines the persistence boundary for the saved-recipe
// collection: get/set of a single named blob of serialized JSON. There are
// no partial reads or writes; Set replaces the whole blob atomically.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the named blob has never been written.
var ErrNotFound = errors.New("blob not found")

type BlobStore interface {
	Get(ctx context.Context, name string) ([]byte, error)
	// Set replaces the blob all-or-nothing: on error the previous contents
	// must still be readable.
	Set(ctx context.Context, name string, data []byte) error
}
