package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

const probeKey = "__storage_test__"

// Store is the JSON key-value store every other component persists through.
// The bool-returning methods never surface errors; failures are logged here and
// reported as absent/false. Update is the only error-returning entry point.
type Store struct {
	backend Backend
	log     *zap.Logger

	// clearMu is held exclusively by Clear and shared by every keyed operation.
	clearMu sync.RWMutex
	locks   keyLocks
}

func New(backend Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		backend: backend,
		log:     log.Named("storage"),
		locks:   keyLocks{locks: make(map[string]*keyLock)},
	}
}

// Get decodes the value at key into dst. It reports false when the key is
// absent, the backend fails, or the stored JSON is corrupt.
func (s *Store) Get(ctx context.Context, key string, dst any) bool {
	unlock := s.lock(key)
	defer unlock()

	found, err := s.read(ctx, key, dst)
	if err != nil {
		s.log.Warn("storage get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return found
}

func (s *Store) Set(ctx context.Context, key string, value any) bool {
	unlock := s.lock(key)
	defer unlock()

	if err := s.write(ctx, key, value); err != nil {
		s.log.Warn("storage set failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Remove deletes key. Removing an absent key succeeds.
func (s *Store) Remove(ctx context.Context, key string) bool {
	unlock := s.lock(key)
	defer unlock()

	if err := s.backend.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		s.log.Warn("storage remove failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *Store) Clear(ctx context.Context) bool {
	s.clearMu.Lock()
	defer s.clearMu.Unlock()

	if err := s.backend.Clear(ctx); err != nil {
		s.log.Warn("storage clear failed", zap.Error(err))
		return false
	}
	return true
}

// IsAvailable probes the backend with a write followed by a remove.
func (s *Store) IsAvailable(ctx context.Context) bool {
	if !s.Set(ctx, probeKey, probeKey) {
		return false
	}
	return s.Remove(ctx, probeKey)
}

func (s *Store) Close() error {
	return s.backend.Close()
}

// Update reads the value at key, applies fn and writes the result back while
// holding the key's lock, so concurrent updates of one key never interleave.
// When fn returns an error nothing is written and that error is returned as is.
// A corrupt stored value is treated as absent; a backend failure aborts with
// ErrStorage so a transient outage never overwrites data.
func Update[T any](ctx context.Context, s *Store, key string, fn func(cur T, found bool) (T, error)) error {
	return update(ctx, s, key, fn, false)
}

// UpdateStrict is Update for values that must never be replaced wholesale,
// such as append-only lists. A stored value that does not decode into T aborts
// with ErrStorage and is left untouched.
func UpdateStrict[T any](ctx context.Context, s *Store, key string, fn func(cur T, found bool) (T, error)) error {
	return update(ctx, s, key, fn, true)
}

func update[T any](ctx context.Context, s *Store, key string, fn func(cur T, found bool) (T, error), strict bool) error {
	unlock := s.lock(key)
	defer unlock()

	var cur T
	found, err := s.read(ctx, key, &cur)
	if err != nil {
		var decodeErr *decodeError
		if !errors.As(err, &decodeErr) {
			s.log.Warn("storage update read failed", zap.String("key", key), zap.Error(err))
			return fmt.Errorf("%w: read %s: %v", ErrStorage, key, err)
		}
		if strict {
			s.log.Error("stored value does not decode, refusing to overwrite", zap.String("key", key), zap.Error(err))
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
		s.log.Warn("discarding corrupt stored value", zap.String("key", key), zap.Error(err))
		var zero T
		cur, found = zero, false
	}

	next, err := fn(cur, found)
	if err != nil {
		return err
	}

	if err := s.write(ctx, key, next); err != nil {
		s.log.Warn("storage update write failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%w: write %s: %v", ErrStorage, key, err)
	}
	return nil
}

func (s *Store) read(ctx context.Context, key string, dst any) (bool, error) {
	data, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("backend get: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, &decodeError{key: key, err: err}
	}
	return true, nil
}

type decodeError struct {
	key string
	err error
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("unmarshal %s: %v", e.key, e.err)
}

func (e *decodeError) Unwrap() error {
	return e.err
}

func (s *Store) write(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.backend.Set(ctx, key, data); err != nil {
		return fmt.Errorf("backend set: %w", err)
	}
	return nil
}

func (s *Store) lock(key string) func() {
	s.clearMu.RLock()
	release := s.locks.acquire(key)
	return func() {
		release()
		s.clearMu.RUnlock()
	}
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// keyLocks hands out one mutex per key and forgets it once nobody holds it.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

func (k *keyLocks) acquire(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
