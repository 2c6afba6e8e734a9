// Package cache provides an in-process TTL cache and a caching decorator
// for market data clients.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache maps keys to values that expire after a per-entry lifetime.
// It is safe for concurrent use.
// Expired entries are swept on the first Set after the earliest expiry
// passes, so keys that are never read again do not accumulate.
type TTLCache[V any] struct {
	mu    sync.RWMutex
	items map[string]entry[V]
	now   func() time.Time

	// nextExpiry is the earliest expiresAt among stored entries
	nextExpiry time.Time
}

// New creates an empty cache
func New[V any]() *TTLCache[V] {
	return &TTLCache[V]{
		items: make(map[string]entry[V]),
		now:   time.Now,
	}
}

// Get returns the value for key if present and unexpired
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it
		if cur, ok := c.items[key]; ok && !c.now().Before(cur.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for ttl. A non-positive ttl deletes the key.
func (c *TTLCache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		delete(c.items, key)
		return
	}

	now := c.now()
	if !c.nextExpiry.IsZero() && !now.Before(c.nextExpiry) {
		c.sweep(now)
	}

	expiresAt := now.Add(ttl)
	c.items[key] = entry[V]{value: value, expiresAt: expiresAt}
	if c.nextExpiry.IsZero() || expiresAt.Before(c.nextExpiry) {
		c.nextExpiry = expiresAt
	}
}

// Delete removes key
func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Purge drops expired entries and returns how many were removed
func (c *TTLCache[V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweep(c.now())
}

// sweep removes entries expired at now and resets nextExpiry. Caller holds mu.
func (c *TTLCache[V]) sweep(now time.Time) int {
	removed := 0
	c.nextExpiry = time.Time{}
	for k, e := range c.items {
		if !now.Before(e.expiresAt) {
			delete(c.items, k)
			removed++
			continue
		}
		if c.nextExpiry.IsZero() || e.expiresAt.Before(c.nextExpiry) {
			c.nextExpiry = e.expiresAt
		}
	}
	return removed
}

// Len returns the number of stored entries, including expired ones not yet purged
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
