// Package storage defines the key-value port the expense store persists to.
//
// A backend stores opaque blobs under string keys and always reads and
// writes a value whole. Implementations live in the subpackages.
package storage

import (
	"context"
	"errors"
)

// DefaultKey is the key the expense collection is stored under.
const DefaultKey = "expenses"

var ErrEmptyKey = errors.New("empty storage key")

// BlobStore reads and writes whole serialized values.
type BlobStore interface {
	// Get returns the blob stored under key. found is false when the key has
	// never been written.
	Get(ctx context.Context, key string) (blob []byte, found bool, err error)

	// Set overwrites the blob stored under key.
	Set(ctx context.Context, key string, blob []byte) error
}
