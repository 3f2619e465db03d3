// Package cache provides an in-process cache for derived read models such as
// graph snapshots. Entries are per-instance; correctness never depends on
// the cache, only latency does.
package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// MemoryCache is a TTL cache guarded by a read-write mutex
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewMemoryCache creates an in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]entry),
	}
}

// Get returns the cached value if present and not expired
func (c *MemoryCache) Get(_ context.Context, key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores a value with a TTL in seconds
func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, ttlSeconds int) error {
	if ttlSeconds <= 0 {
		ttlSeconds = 60
	}
	c.mu.Lock()
	c.entries[key] = entry{
		value:     value,
		expiresAt: time.Now().Add(time.Duration(ttlSeconds) * time.Second),
	}
	c.mu.Unlock()
	return nil
}

// Delete removes a key
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}
