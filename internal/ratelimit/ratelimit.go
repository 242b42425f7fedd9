// Package ratelimit throttles how often one booker may issue CLI
// commands, using a Redis token-bucket Lua script keyed by booker UID
// instead of by (ip, user, route), since a booking session has no
// routes to distinguish.
package ratelimit

import (
	"context"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mstoyanov/booker/internal/config"
)

var script = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill_tokens = tonumber(ARGV[3])
	local interval_ms = tonumber(ARGV[4])
	local ttl_seconds = tonumber(ARGV[5])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	if interval_ms > 0 and refill_tokens > 0 then
		local elapsed = math.max(0, now_ms - last_refill)
		local intervals = math.floor(elapsed / interval_ms)
		if intervals > 0 then
			tokens = math.min(capacity, tokens + (intervals * refill_tokens))
			last_refill = last_refill + (intervals * interval_ms)
		end
	end

	local allowed = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill, 'capacity', capacity)
	redis.call('EXPIRE', key, ttl_seconds)

	return allowed
`)

// Limiter gates booker commands against a Redis-backed token bucket.
// A nil *redis.Client degrades gracefully — every call is allowed.
type Limiter struct {
	cfg config.RateLimitConfig
	rdb *redis.Client
}

// New builds a Limiter. If cfg.Enabled is false or rdb is nil, Allow
// always returns true.
func New(cfg config.RateLimitConfig, rdb *redis.Client) *Limiter {
	return &Limiter{cfg: cfg, rdb: rdb}
}

// Allow consumes one token from bookerUID's bucket, returning false
// once the bucket is empty until the next refill interval.
func (l *Limiter) Allow(ctx context.Context, bookerUID string) (bool, error) {
	if !l.cfg.Enabled || l.rdb == nil {
		return true, nil
	}

	key := l.cfg.Prefix + ":" + bookerUID
	now := time.Now()

	res, err := script.Run(ctx, l.rdb, []string{key},
		now.UnixMilli(),
		l.cfg.Capacity,
		l.cfg.RefillTokens,
		l.cfg.RefillInterval.Milliseconds(),
		int64(math.Ceil(l.cfg.TTL.Seconds())),
	).Result()
	if err != nil {
		return true, err
	}

	allowed, _ := res.(int64)
	return allowed == 1, nil
}
