// Copyright 2026 Joel Johnson Thomas
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package cache

import (
	"context"
	"log/slog"

	"github.com/dgraph-io/ristretto/v2"
)

// Keys for cached item listings. Completing an item's pipeline run
// invalidates both so readers never see stale listings.
const (
	KeyLatestItems = "items:latest"
	KeyAllItems    = "items:all"
)

const (
	defaultNumCounters = 10_000
	defaultMaxCost     = 64 << 20 // 64 MiB
	defaultBufferItems = 64
)

// Invalidator drops cached entries. The pipeline depends only on this
// interface so tests can observe invalidations.
type Invalidator interface {
	// Invalidate removes the given keys from the cache.
	Invalidate(ctx context.Context, keys ...string) error
}

// ListCache caches serialized item listings in memory.
type ListCache struct {
	cache  *ristretto.Cache[string, []byte]
	logger *slog.Logger
}

var _ Invalidator = (*ListCache)(nil)

// NewListCache creates an in-memory list cache.
func NewListCache() (*ListCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: defaultNumCounters,
		MaxCost:     defaultMaxCost,
		BufferItems: defaultBufferItems,
	})
	if err != nil {
		return nil, err
	}
	return &ListCache{
		cache:  cache,
		logger: slog.Default().With("component", "cache"),
	}, nil
}

// Get returns the cached value for a key.
func (c *ListCache) Get(ctx context.Context, key string) ([]byte, bool) {
	return c.cache.Get(key)
}

// Set stores a value under a key. Cost is the value's size in bytes.
func (c *ListCache) Set(ctx context.Context, key string, value []byte) {
	c.cache.Set(key, value, int64(len(value)))
}

// Invalidate removes the given keys from the cache.
func (c *ListCache) Invalidate(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		c.cache.Del(key)
	}
	c.logger.Debug("invalidated cache keys", "keys", keys)
	return nil
}

// Wait blocks until buffered writes have been applied.
// Mostly useful in tests.
func (c *ListCache) Wait() {
	c.cache.Wait()
}

// Close releases the cache's resources.
func (c *ListCache) Close() {
	c.cache.Close()
}
