// Package cache is a read-through cache for upstream GET responses. Entries
// go stale after a per-key window, concurrent fetches of one key share a
// single upstream call, and failures are never stored.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Default staleness windows.
const (
	ListTTL      = 30 * time.Second
	DirectoryTTL = 5 * time.Minute
)

// FetchFunc loads the value for a key.
type FetchFunc func(ctx context.Context) ([]byte, error)

type entry struct {
	data    []byte
	expires time.Time
}

// Cache maps keys to response bodies.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	// inflight tracks running fetches. A fetch invalidated while running
	// does not store its result.
	inflight map[string]*flight
	group    singleflight.Group
	now      func() time.Time
}

type flight struct {
	stale bool
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{
		entries:  make(map[string]entry),
		inflight: make(map[string]*flight),
		now:      time.Now,
	}
}

// Key builds a cache key scoped to one session.
func Key(scope, path, query string) string {
	if query != "" {
		path += "?" + query
	}
	return scope + " " + path
}

// Get returns the cached value for key if it is fresh, otherwise fetches it.
// Concurrent callers for the same key share one fetch. Each caller stops
// waiting when its own ctx is done.
func (c *Cache) Get(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc) ([]byte, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Before(e.expires) {
		c.mu.Unlock()
		return e.data, nil
	}
	c.mu.Unlock()

	ch := c.group.DoChan(key, func() (any, error) {
		f := &flight{}
		c.mu.Lock()
		c.inflight[key] = f
		c.mu.Unlock()

		// The shared fetch outlives any single caller.
		data, err := fetch(context.WithoutCancel(ctx))

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.inflight[key] == f {
			delete(c.inflight, key)
		}
		if err != nil {
			return nil, err
		}
		if !f.stale {
			c.entries[key] = entry{data: data, expires: c.now().Add(ttl)}
		}
		return data, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// InvalidatePrefix drops every entry whose key starts with prefix and stops
// in-flight fetches from storing their results.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	// Later callers start a new fetch instead of joining a stale one.
	for k, f := range c.inflight {
		if strings.HasPrefix(k, prefix) {
			f.stale = true
			delete(c.inflight, k)
			c.group.Forget(k)
		}
	}
}

// Purge drops every entry and in-flight fetch of one session scope.
func (c *Cache) Purge(scope string) {
	c.InvalidatePrefix(scope + " ")
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep removes expired entries.
func (c *Cache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
}
