package agent

import (
	"context"
	"sync"
	"time"
)

// Cache is the key-value backend sessions and histories are kept in.
type Cache[S any] interface {
	Set(ctx context.Context, key string, val S) error
	Get(ctx context.Context, key string) (S, bool, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

type memoryEntry[S any] struct {
	val     S
	expires time.Time
}

// MemoryCache is an in-process Cache. Entries expire after ttl when ttl > 0.
type MemoryCache[S any] struct {
	mu  sync.RWMutex
	m   map[string]memoryEntry[S]
	ttl time.Duration
	now func() time.Time
}

func NewMemoryCore[S any]() *MemoryCache[S] {
	return NewMemoryCoreWithTTL[S](0)
}

func NewMemoryCoreWithTTL[S any](ttl time.Duration) *MemoryCache[S] {
	return &MemoryCache[S]{m: map[string]memoryEntry[S]{}, ttl: ttl, now: time.Now}
}

func (m *MemoryCache[S]) Set(ctx context.Context, key string, val S) error {
	entry := memoryEntry[S]{val: val}
	if m.ttl > 0 {
		entry.expires = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.m[key] = entry
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[S]) Get(ctx context.Context, key string) (S, bool, error) {
	m.mu.RLock()
	entry, ok := m.m[key]
	m.mu.RUnlock()
	if !ok || m.expired(entry) {
		var zero S
		return zero, false, nil
	}
	return entry.val, true, nil
}

func (m *MemoryCache[S]) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.m, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[S]) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := m.Get(ctx, key)
	return ok, err
}

// Sweep drops expired entries and reports how many were removed.
func (m *MemoryCache[S]) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, entry := range m.m {
		if m.expired(entry) {
			delete(m.m, k)
			n++
		}
	}
	return n
}

func (m *MemoryCache[S]) expired(entry memoryEntry[S]) bool {
	return !entry.expires.IsZero() && !m.now().Before(entry.expires)
}
