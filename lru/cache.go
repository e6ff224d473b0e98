// Package lru is a thread-safe, generics-based LRU cache with optional
// per-entry expiry. Expired entries are collected lazily on access.
package lru

import (
	"container/list"
	"sync"
	"time"
)

type entry[K comparable, V any] struct {
	key       K
	val       V
	expiresAt time.Time // zero means no expiry
}

func (e *entry[K, V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Cache keeps up to capacity entries, evicting the least recently used
// entry on overflow. The zero value is not usable; construct with New or
// NewWithTTL.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration // 0 means entries never expire
	items    map[K]*list.Element
	order    *list.List // front is most recently used
	now      func() time.Time
}

// New creates a cache with the given capacity and no entry expiry.
// Panics if capacity < 1.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	return NewWithTTL[K, V](capacity, 0)
}

// NewWithTTL creates a cache whose entries expire ttl after insertion
// (ttl 0 disables expiry). Panics if capacity < 1.
func NewWithTTL[K comparable, V any](capacity int, ttl time.Duration) *Cache[K, V] {
	if capacity < 1 {
		panic("lru: capacity must be >= 1")
	}
	return &Cache[K, V]{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get returns the value for key and marks it most recently used. An
// expired entry is dropped and reported as missing.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[K, V])
	if e.expired(c.now()) {
		c.order.Remove(el)
		delete(c.items, key)
		return zero, false
	}
	c.order.MoveToFront(el)
	return e.val, true
}

// Put inserts or replaces the value for key, resetting its expiry. When
// the cache is full the least recently used entry is evicted; Put reports
// the evicted key when that happens.
func (c *Cache[K, V]) Put(key K, val V) (K, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[K, V])
		e.val = val
		e.expiresAt = expiresAt
		c.order.MoveToFront(el)
		var zero K
		return zero, false
	}

	var evictedKey K
	evicted := false
	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		victim := oldest.Value.(*entry[K, V])
		c.order.Remove(oldest)
		delete(c.items, victim.key)
		evictedKey = victim.key
		evicted = true
	}

	c.items[key] = c.order.PushFront(&entry[K, V]{key: key, val: val, expiresAt: expiresAt})
	return evictedKey, evicted
}

// Delete removes key and reports whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}
	c.order.Remove(el)
	delete(c.items, key)
	return true
}

// Len returns the number of entries, counting expired entries not yet
// collected.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Peek returns the value for key without touching recency order or
// collecting an expired entry.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[K, V])
	if e.expired(c.now()) {
		return zero, false
	}
	return e.val, true
}

// Keys returns all keys from most to least recently used.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry[K, V]).key)
	}
	return keys
}

// Clear drops every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[K]*list.Element, c.capacity)
}
