package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by a Backend when the key holds no value.
	ErrNotFound = errors.New("key not found")
	// ErrStorage wraps backend and serialization failures surfaced by Update.
	ErrStorage = errors.New("storage failure")

	errClosed = errors.New("backend is closed")
)

// Backend is a namespace-scoped byte store. Implementations must be safe for
// concurrent use; the Store adds per-key atomicity on top.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Clear removes every key of the backend's namespace.
	Clear(ctx context.Context) error
	Close() error
}
