// Package store persists small JSON documents under string keys.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("store: key not found")

// KV is a key→value store of JSON-serializable records.
type KV interface {
	// Get decodes the value stored under key into v
	Get(ctx context.Context, key string, v any) error

	// Put replaces the value stored under key
	Put(ctx context.Context, key string, v any) error

	// Close releases resources
	Close() error
}
