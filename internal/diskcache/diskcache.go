// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package diskcache is the cold tier of zipengine's optional
// decompression cache: an on-disk store for entries too numerous or
// too large to keep hot in internal/memcache, backed by the teacher's
// own embedded-KV dependency (cockroachdb/pebble), repurposed here from
// path metadata to cached decompressed payloads. Values are
// zstd-compressed before they hit pebble, since a cache of
// already-decompressed bytes is exactly the kind of working set that
// benefits from a fast, low-ratio codec on the way to disk.
package diskcache

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/DataDog/zstd"
	"github.com/cockroachdb/pebble/v2"
)

// envCacheMB, when set, overrides defaultCacheMB for the pebble block
// cache. It is the only environment-variable-controlled tunable in
// this module, matching the teacher's own use of a single env var
// (BEGB) to size its analogous byte cache.
const envCacheMB = "TOKZIP_CACHE_MB"

const defaultCacheMB = 64

// Cache is an on-disk decompressed-payload store. It satisfies the
// unexported cache interface zipengine.WithCache expects.
type Cache struct {
	db *pebble.DB
}

// Open creates or reopens a pebble store at dir.
func Open(dir string) (*Cache, error) {
	mb := defaultCacheMB
	if v := os.Getenv(envCacheMB); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			mb = n
		}
	}
	db, err := pebble.Open(dir, &pebble.Options{
		Cache: pebble.NewCache(int64(mb) << 20),
	})
	if err != nil {
		return nil, fmt.Errorf("diskcache: opening %s: %w", dir, err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying pebble store.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns a previously cached, decompressed payload for key.
func (c *Cache) Get(_ context.Context, key string) ([]byte, bool) {
	compressed, closer, err := c.db.Get([]byte(key))
	if err != nil {
		return nil, false
	}
	defer closer.Close()

	out, err := zstd.Decompress(nil, compressed)
	if err != nil {
		return nil, false
	}
	return out, true
}

// Put stores value under key, zstd-compressed.
func (c *Cache) Put(_ context.Context, key string, value []byte) {
	compressed, err := zstd.CompressLevel(nil, value, zstd.DefaultCompression)
	if err != nil {
		return
	}
	_ = c.db.Set([]byte(key), compressed, pebble.NoSync)
}
