package checkout

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultSessionTTL = 30 * time.Minute
	cleanupInterval   = 30 * time.Second
)

type entry struct {
	mu        sync.Mutex
	session   Session
	expiresAt time.Time
}

// registry keeps live sessions and expires idle ones in the background.
type registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*entry
	ttl      time.Duration
	now      func() time.Time

	stopCleanup chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func newRegistry(ttl, interval time.Duration, now func() time.Time) *registry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if interval <= 0 {
		interval = cleanupInterval
	}
	r := &registry{
		sessions:    make(map[uuid.UUID]*entry),
		ttl:         ttl,
		now:         now,
		stopCleanup: make(chan struct{}),
	}

	r.wg.Add(1)
	go r.cleanupLoop(interval)

	return r
}

func (r *registry) cleanupLoop(interval time.Duration) {
	defer r.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.expire()
		case <-r.stopCleanup:
			return
		}
	}
}

func (r *registry) expire() int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	expired := 0
	for id, e := range r.sessions {
		if now.After(e.expiresAt) {
			delete(r.sessions, id)
			expired++
		}
	}
	return expired
}

func (r *registry) add(s Session) *entry {
	e := &entry{session: s, expiresAt: r.now().Add(r.ttl)}
	r.mu.Lock()
	r.sessions[s.ID] = e
	r.mu.Unlock()
	return e
}

// get returns the entry and pushes its expiry out.
func (r *registry) get(id uuid.UUID) (*entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.expiresAt = r.now().Add(r.ttl)
	return e, true
}

func (r *registry) remove(id uuid.UUID) (*entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	return e, ok
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// close stops the background cleanup and waits for it to finish.
func (r *registry) close() {
	r.stopOnce.Do(func() { close(r.stopCleanup) })
	r.wg.Wait()
}
