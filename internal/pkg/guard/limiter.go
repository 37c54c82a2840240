// Package guard holds the per-key rate limiter for auth endpoints and the
// per-user lock around checkout creation. Both are Redis-backed so they hold
// across instances, with an in-process go-cache fallback for single-node runs.
package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window counter. Allow records the attempt and reports
// whether it is still within the limit.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: prefix, limit: int64(limit), window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := fmt.Sprintf("%s:%s", l.prefix, key)

	n, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, k, l.window).Err(); err != nil {
			return false, err
		}
	}
	return n <= l.limit, nil
}

type MemoryLimiter struct {
	cache *cache.Cache
	limit int
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		cache: cache.New(window, window),
		limit: limit,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	// Add only succeeds for a new window; the error for an existing key is expected.
	_ = l.cache.Add(key, 0, cache.DefaultExpiration)
	n, err := l.cache.IncrementInt(key, 1)
	if err != nil {
		return false, err
	}
	return n <= l.limit, nil
}
