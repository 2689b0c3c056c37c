// Package storage defines the record-level persistence backends used by the
// durable path tree.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Driver when no record exists for a key.
var ErrNotFound = errors.New("record not found")

// ErrClosed is returned by a Driver after Close has been called.
var ErrClosed = errors.New("driver closed")

// Driver persists opaque records keyed by their full path.
// The Driver is the only shared resource between the single writer and the
// concurrent readers of a path tree, so implementations must make each Get,
// Put and Delete atomic with respect to that single record. No atomicity is
// expected across records.
type Driver interface {
	// Get returns the record stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores record at key, replacing any previous record.
	Put(ctx context.Context, key string, record []byte) error

	// Delete removes the record at key. Deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error

	// Close closes the store and releases any resources.
	Close() error
}
