// Package mwt is a small memoize-with-timeout cache. It backs the chat
// administrator lookups so the Telegram API is asked at most once per
// chat per TTL window.
package mwt

import (
	"sync"
	"time"

	"santabot/internal/logging"
)

type entry[V any] struct {
	value V
	at    time.Time
}

// Cache memoizes fetch results per key for a fixed timeout.
type Cache[K comparable, V any] struct {
	ttl time.Duration
	log logging.Logger

	mu      sync.Mutex
	entries map[K]entry[V]

	now func() time.Time
}

func New[K comparable, V any](ttl time.Duration, log logging.Logger) *Cache[K, V] {
	return &Cache[K, V]{
		ttl:     ttl,
		log:     log,
		entries: map[K]entry[V]{},
		now:     time.Now,
	}
}

// Get returns the cached value for key, calling fetch on a miss or after
// the TTL has passed. A failed fetch is not cached.
func (c *Cache[K, V]) Get(key K, fetch func() (V, error)) (V, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	now := c.now()
	c.mu.Unlock()

	if ok && now.Sub(e.at) < c.ttl {
		if !c.log.IsZero() {
			c.log.Debug("cache hit", logging.Any("key", key))
		}
		return e.value, nil
	}

	if !c.log.IsZero() {
		c.log.Debug("cache miss", logging.Any("key", key))
	}
	v, err := fetch()
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	c.entries[key] = entry[V]{value: v, at: now}
	c.mu.Unlock()
	return v, nil
}

// Invalidate drops one key.
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Collect drops entries whose TTL has passed.
func (c *Cache[K, V]) Collect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.at) >= c.ttl {
			delete(c.entries, k)
		}
	}
}

// Len reports the number of cached entries, expired ones included.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
