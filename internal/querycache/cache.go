// Package querycache holds fetched server state per key and implements the
// optimistic update cycle used by cart mutations.
package querycache

import (
	"context"
	"sync"
)

// Entry is a point-in-time copy of one key.
type Entry[V any] struct {
	Value   V
	Present bool
}

// Cache maps keys to values. Values handed in and out are cloned so callers
// never share memory with the cache.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]V
	clone   func(V) V
}

// New returns an empty cache. clone must produce a deep copy.
func New[K comparable, V any](clone func(V) V) *Cache[K, V] {
	return &Cache[K, V]{entries: make(map[K]V), clone: clone}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return v, false
	}
	return c.clone(v), true
}

func (c *Cache[K, V]) Set(key K, v V) {
	c.mu.Lock()
	c.entries[key] = c.clone(v)
	c.mu.Unlock()
}

// Invalidate drops the entry so the next read goes to the source.
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *Cache[K, V]) Snapshot(key K) Entry[V] {
	v, ok := c.Get(key)
	return Entry[V]{Value: v, Present: ok}
}

// Restore puts back exactly what Snapshot captured, including absence.
func (c *Cache[K, V]) Restore(key K, e Entry[V]) {
	if !e.Present {
		c.Invalidate(key)
		return
	}
	c.Set(key, e.Value)
}

// Mutate runs an optimistic update. apply edits a copy of the cached value
// when one is present; write performs the remote change. A failed write
// restores the snapshot taken before apply and returns the write error; a
// successful one invalidates the key. Overlapping calls each restore their own
// snapshot, so the last one to resolve wins until the next fetch.
func (c *Cache[K, V]) Mutate(ctx context.Context, key K, apply func(V) V, write func(context.Context) error) error {
	snap := c.Snapshot(key)
	if snap.Present && apply != nil {
		c.Set(key, apply(c.clone(snap.Value)))
	}
	if err := write(ctx); err != nil {
		c.Restore(key, snap)
		return err
	}
	c.Invalidate(key)
	return nil
}
