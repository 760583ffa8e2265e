package storage

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisOptions задаёт параметры подключения к Redis.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient подключается к Redis и проверяет соединение.
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", opts.Addr, err)
	}
	return c, nil
}
