// Package querycache keeps every console view consistent with remote
// state: a keyed read-through cache with in-flight deduplication and a
// two-phase mutation protocol (write, then invalidate, then let
// readers refetch).
package querycache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrNoCredential suspends a read whose key carries no credential. The
// cache never issues an unauthenticated call; the caller retries once
// a session exists.
var ErrNoCredential = errors.New("querycache: read suspended, no credential")

// entry is one cached read result. gen is the resource generation the
// value was fetched under; a generation bump makes the entry stale.
type entry struct {
	value any
	gen   uint64
}

// Cache is the process-wide read cache and mutation coordinator.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	gens    map[string]uint64
	group   singleflight.Group
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		gens:    make(map[string]uint64),
	}
}

// Read returns the cached value for key, fetching it at most once per
// distinct key while concurrent readers wait on the same underlying
// call. A read issued after a successful mutation of the key's
// resource never sees the pre-mutation value: the resource generation
// is part of the flight key, so later readers cannot join a fetch that
// started before the invalidation.
func (c *Cache) Read(ctx context.Context, key Key, fetch func(ctx context.Context) (any, error)) (any, error) {
	if key.Credential == "" {
		return nil, ErrNoCredential
	}

	id := key.id()

	c.mu.Lock()
	gen := c.gens[key.Resource]
	if e, ok := c.entries[id]; ok && e.gen == gen {
		v := e.value
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	flightKey := fmt.Sprintf("%s\x1f%d", id, gen)
	v, err, _ := c.group.Do(flightKey, func() (any, error) {
		val, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[id] = &entry{value: val, gen: gen}
		c.mu.Unlock()
		return val, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Mutate executes one write. On success every cached read of the named
// resources is invalidated before Mutate returns, so the invalidation
// is visible to any read issued after the success is acknowledged. On
// failure the cache is untouched and the error is returned for
// user-visible handling.
func (c *Cache) Mutate(ctx context.Context, op func(ctx context.Context) error, resources ...string) error {
	if err := op(ctx); err != nil {
		return err
	}
	c.Invalidate(resources...)
	return nil
}

// Invalidate marks every cached read of the named resources stale and
// eligible for refetch. Consumers observe updated state on their next
// read cycle; nothing is pushed.
func (c *Cache) Invalidate(resources ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, res := range resources {
		c.gens[res]++
	}
}

// Peek reports whether a fresh value is cached for key, without
// fetching. Used by tests and the dashboard's cache status view.
func (c *Cache) Peek(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.id()]
	if !ok || e.gen != c.gens[key.Resource] {
		return nil, false
	}
	return e.value, true
}

// Fetch is the typed read helper over Cache.Read.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fetch func(ctx context.Context) (T, error)) (T, error) {
	v, err := c.Read(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("querycache: cached value for %q has unexpected type %T", key.Resource, v)
	}
	return out, nil
}
