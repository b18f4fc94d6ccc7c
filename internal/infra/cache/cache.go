// Package cache provides a generic in-memory TTL cache used for
// dashboard summaries and client reference lists.
package cache

import (
	"sync"
	"time"
)

type item[T any] struct {
	value    T
	deadline time.Time
}

func (it item[T]) expired(now time.Time) bool {
	return now.After(it.deadline)
}

// InMemory is a mutex-protected map cache where every entry lives for
// a fixed TTL. Expired entries are dropped lazily on read and swept
// periodically by a janitor goroutine.
type InMemory[T any] struct {
	mu   sync.Mutex
	data map[string]item[T]
	ttl  time.Duration
}

// New creates a cache whose entries expire after ttl.
func New[T any](ttl time.Duration) *InMemory[T] {
	c := &InMemory[T]{
		data: make(map[string]item[T]),
		ttl:  ttl,
	}
	go c.janitor()
	return c
}

// Get returns the live value for key. A hit on an expired entry
// removes it and reports a miss.
func (c *InMemory[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.data[key]
	if !ok {
		var zero T
		return zero, false
	}
	if it.expired(time.Now()) {
		delete(c.data, key)
		var zero T
		return zero, false
	}
	return it.value, true
}

// Set stores value under key, resetting its TTL.
func (c *InMemory[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = item[T]{value: value, deadline: time.Now().Add(c.ttl)}
}

// Delete removes key if present.
func (c *InMemory[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
}

// Len returns the number of stored entries, counting expired ones the
// janitor has not swept yet.
func (c *InMemory[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.data)
}

// janitor sweeps expired entries. Sweeps run at the TTL interval,
// floored at one second so short TTLs do not busy-loop.
func (c *InMemory[T]) janitor() {
	interval := c.ttl
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for now := range ticker.C {
		c.mu.Lock()
		for k, it := range c.data {
			if it.expired(now) {
				delete(c.data, k)
			}
		}
		c.mu.Unlock()
	}
}
