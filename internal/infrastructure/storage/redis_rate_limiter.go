package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"animal-watch-bot/internal/domain/port"
)

// RedisRateLimiter считает запросы в фиксированном окне.
type RedisRateLimiter struct {
	cli    *redis.Client
	limit  int
	window time.Duration
}

func NewRedisRateLimiter(cli *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{cli: cli, limit: limit, window: window}
}

func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	key = "rate_limit:" + key
	count, err := r.cli.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis: incr %s: %w", key, err)
	}
	if count == 1 {
		if err := r.cli.Expire(ctx, key, r.window).Err(); err != nil {
			return false, fmt.Errorf("redis: expire %s: %w", key, err)
		}
	}
	return count <= int64(r.limit), nil
}

var _ port.RateLimiter = (*RedisRateLimiter)(nil)
