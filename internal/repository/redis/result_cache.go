package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Every dashboard cache entry lives under this prefix so Flush can
// clear the dashboard without touching rate limiter or tracker keys.
const cachePrefix = "dash:"

type ResultCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewResultCache(client *redis.Client, ttl time.Duration) *ResultCache {
	return &ResultCache{Client: client, TTL: ttl}
}

func (c *ResultCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.Client.Get(ctx, cachePrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *ResultCache) Set(ctx context.Context, key string, value []byte) error {
	return c.Client.Set(ctx, cachePrefix+key, value, c.TTL).Err()
}

// Flush drops every cached dashboard result and reports how many
// entries went away.
func (c *ResultCache) Flush(ctx context.Context) (int, error) {
	keys, err := c.Client.Keys(ctx, cachePrefix+"*").Result()
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := c.Client.Del(ctx, keys...).Err(); err != nil {
		return 0, err
	}
	return len(keys), nil
}

func (c *ResultCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}
