// Package cache provides a small expiring key-value cache. The whole cache
// shares one timestamp and expires at once; expiry is checked on access.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is the lifetime of cached entries.
const DefaultTTL = 5 * time.Minute

// Clock returns the current time.
type Clock func() time.Time

// Cache is safe for concurrent use.
type Cache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     Clock
	stamp   time.Time
	entries map[string]V
}

// New creates a cache. A nil clock uses time.Now and a non-positive ttl
// uses DefaultTTL.
func New[V any](ttl time.Duration, clock Clock) *Cache[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &Cache[V]{
		ttl:     ttl,
		now:     clock,
		entries: make(map[string]V),
	}
}

// Get returns the entry for key. If the cache has outlived its ttl it is
// emptied, its timestamp restarted, and the lookup misses.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.stamp) > c.ttl {
		c.entries = make(map[string]V)
		c.stamp = now
		var zero V
		return zero, false
	}
	v, ok := c.entries[key]
	return v, ok
}

// Put stores value under key. It does not extend the cache lifetime.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Invalidate drops every entry. The next Get restarts the lifetime.
func (c *Cache[V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]V)
	c.stamp = time.Time{}
}

// Len returns the number of entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
