package navcheck

import (
	"context"
	"sync"
	"time"
)

// resultCache abstracts the verification result cache and event sink.
// The production implementation is NATS-backed; tests use MemoryCache.
type resultCache interface {
	GetCachedResult(ctx context.Context, url string) (*CacheEntry, error)
	SetCachedResult(ctx context.Context, entry *CacheEntry) error
	IsCacheValid(entry *CacheEntry) bool
	PublishBrokenTarget(ctx context.Context, event *BrokenTargetEvent) error
	Close() error
}

// MemoryCache is an in-process resultCache used in tests and when NATS is not
// configured.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*CacheEntry
	events  []*BrokenTargetEvent
}

// NewMemoryCache creates an in-memory cache with the given TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, entries: make(map[string]*CacheEntry)}
}

func (m *MemoryCache) GetCachedResult(_ context.Context, url string) (*CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[url], nil
}

func (m *MemoryCache) SetCachedResult(_ context.Context, entry *CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.LastChecked = time.Now()
	m.entries[entry.URL] = entry
	return nil
}

func (m *MemoryCache) IsCacheValid(entry *CacheEntry) bool {
	if entry == nil {
		return false
	}
	return time.Since(entry.LastChecked) < m.ttl
}

func (m *MemoryCache) PublishBrokenTarget(_ context.Context, event *BrokenTargetEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event.Timestamp = time.Now()
	m.events = append(m.events, event)
	return nil
}

// Events returns the broken target events published so far.
func (m *MemoryCache) Events() []*BrokenTargetEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*BrokenTargetEvent, len(m.events))
	copy(out, m.events)
	return out
}

func (m *MemoryCache) Close() error { return nil }
