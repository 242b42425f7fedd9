// Package statuscache fronts Engine.DumpStatus with a short-TTL Redis
// cache keyed by a single fixed name, since the CLI's "status" command
// is the one expensive, frequently-repeated read this daemon serves.
package statuscache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mstoyanov/booker/internal/config"
)

// Cache wraps a compute function with a Redis-backed cache entry. A
// nil *redis.Client disables caching entirely, matching the degrade-
// gracefully convention used throughout this module's Redis callers.
type Cache struct {
	cfg     config.StatusCacheConfig
	rdb     *redis.Client
	compute func() string
}

// New builds a Cache that calls compute on a miss.
func New(cfg config.StatusCacheConfig, rdb *redis.Client, compute func() string) *Cache {
	cfg.TTL = ttlOrDefault(cfg.TTL)
	return &Cache{cfg: cfg, rdb: rdb, compute: compute}
}

// Get returns the cached status text, computing and storing it on a
// miss. When caching is disabled or Redis is unavailable it computes
// the text on every call without storing it.
func (c *Cache) Get(ctx context.Context) string {
	if !c.cfg.Enabled || c.rdb == nil {
		return c.compute()
	}

	if v, err := c.rdb.Get(ctx, c.cfg.Key).Result(); err == nil {
		return v
	}

	fresh := c.compute()
	_ = c.rdb.Set(ctx, c.cfg.Key, fresh, c.cfg.TTL).Err()
	return fresh
}

// Invalidate drops the cached entry, called after any successful
// book/unbook so the next status read isn't stale for the full TTL.
func (c *Cache) Invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	_ = c.rdb.Del(ctx, c.cfg.Key).Err()
}

// ttlOrDefault guards against a zero TTL meaning "cache forever" by
// accident when config parsing falls through to its zero value.
func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 2 * time.Second
	}
	return ttl
}
