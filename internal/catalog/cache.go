package catalog

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultFetchTimeout bounds one shared dataset fetch.
const DefaultFetchTimeout = 10 * time.Second

// Cache holds each dataset for ttl after a successful fetch; ttl 0 keeps it for
// the life of the process. A failed fetch yields an empty list and is retried on
// the next call.
type Cache struct {
	src          Source
	ttl          time.Duration
	fetchTimeout time.Duration
	now          func() time.Time
	log          *zap.Logger

	mu      sync.RWMutex
	entries map[Dataset]entry
	sfg     singleflight.Group
}

type entry struct {
	value    any
	loadedAt time.Time
}

func NewCache(src Source, ttl time.Duration, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		src:          src,
		ttl:          ttl,
		fetchTimeout: DefaultFetchTimeout,
		now:          time.Now,
		log:          log.Named("catalog"),
		entries:      make(map[Dataset]entry),
	}
}

// Invalidate drops every cached dataset.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[Dataset]entry)
	c.mu.Unlock()
}

func (c *Cache) cached(ds Dataset) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[ds]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(e.loadedAt) >= c.ttl {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) put(ds Dataset, v any) {
	c.mu.Lock()
	c.entries[ds] = entry{value: v, loadedAt: c.now()}
	c.mu.Unlock()
}

func load[T any](ctx context.Context, c *Cache, ds Dataset) []T {
	if v, ok := c.cached(ds); ok {
		return slices.Clone(v.([]T))
	}

	v, err, _ := c.sfg.Do(string(ds), func() (any, error) {
		if v, ok := c.cached(ds); ok {
			return v, nil
		}
		// The fetch is shared by every caller waiting on ds, so it must not
		// end when the caller that started it goes away.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		raw, err := c.src.Fetch(fetchCtx, ds)
		if err != nil {
			return nil, err
		}
		items, err := decodeRecords[T](c.log, ds, raw)
		if err != nil {
			return nil, err
		}
		c.put(ds, items)
		c.log.Debug("dataset loaded", zap.String("dataset", string(ds)), zap.Int("records", len(items)))
		return items, nil
	})
	if err != nil {
		c.log.Error("load dataset failed", zap.String("dataset", string(ds)), zap.Error(err))
		return []T{}
	}
	return slices.Clone(v.([]T))
}

// decodeRecords decodes a JSON array one record at a time and skips records that
// do not fit T.
func decodeRecords[T any](log *zap.Logger, ds Dataset, raw []byte) ([]T, error) {
	var msgs []json.RawMessage
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, err
	}

	out := make([]T, 0, len(msgs))
	skipped := 0
	for _, m := range msgs {
		var v T
		if err := json.Unmarshal(m, &v); err != nil {
			skipped++
			continue
		}
		out = append(out, v)
	}
	if skipped > 0 {
		log.Warn("skipped malformed records", zap.String("dataset", string(ds)), zap.Int("skipped", skipped))
	}
	return out, nil
}
