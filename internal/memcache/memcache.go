// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package memcache is the hot in-memory tier of zipengine's optional
// decompression cache: a bounded, admission-counted cache of recently
// decompressed entry payloads. It exists for the same reason the
// teacher's internal/reader2readerat leans on an admission-aware cache
// (maypok86/otter, itself TinyLFU-based) rather than a bare LRU --
// re-scanning a member of a large archive pulled over HTTP is far more
// expensive than the cache bookkeeping.
package memcache

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"
	tinylfu "github.com/dgryski/go-tinylfu"
)

// Cache is a fixed-capacity, thread-safe decompressed-payload cache.
// It satisfies the unexported cache interface zipengine.WithCache
// expects.
type Cache struct {
	mu sync.Mutex
	t  *tinylfu.T
}

// New builds a Cache admitting up to capacity entries, sampling
// samples recently-evicted keys per admission decision (TinyLFU's
// standard knob; 8 matches the library's own examples).
func New(capacity int) *Cache {
	const samples = 8
	return &Cache{t: tinylfu.New(capacity, samples)}
}

// Get returns a previously cached payload for key, if present.
func (c *Cache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.t.Get(hashKey(key))
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

// Put stores value under key, possibly evicting a colder entry.
func (c *Cache) Put(_ context.Context, key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t.Add(hashKey(key), value)
}

// hashKey turns a cache key into the fixed-width string TinyLFU's
// admission sketch hashes internally anyway; doing it once here with
// xxhash avoids letting long ZIP entry names dominate the sketch's own
// hashing cost.
func hashKey(key string) string {
	h := xxhash.Sum64String(key)
	return string([]byte{
		byte(h), byte(h >> 8), byte(h >> 16), byte(h >> 24),
		byte(h >> 32), byte(h >> 40), byte(h >> 48), byte(h >> 56),
	})
}
