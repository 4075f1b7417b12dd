// ==============================================================================
// REDIS COUNTERS - pkg/cache/redis.go
// ==============================================================================
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to url, which is either a bare host:port or a
// redis://, rediss:// or redis+tls:// URL. A non-empty password and a non-zero
// db override whatever the URL carries.
func NewRedisCache(url, password string, db int) (*RedisCache, error) {
	opts, err := clientOptions(url, password, db)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &RedisCache{client: client}, nil
}

func clientOptions(url, password string, db int) (*redis.Options, error) {
	opts := &redis.Options{Addr: url}
	if strings.Contains(url, "://") {
		if strings.HasPrefix(url, "redis+tls://") {
			url = "rediss://" + strings.TrimPrefix(url, "redis+tls://")
		}
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, err
		}
		opts = parsed
	}
	if password != "" {
		opts.Password = password
	}
	if db != 0 {
		opts.DB = db
	}
	return opts, nil
}

// IncrementWindow bumps key and returns the new count and the time left in
// its window. The key is created with the window as TTL inside the same
// MULTI/EXEC as the increment; a key found without a TTL gets one, so a
// counter can never outlive its window.
func (c *RedisCache) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, window)
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	left := ttl.Val()
	if left < 0 {
		if err := c.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
		left = window
	}
	return incr.Val(), left, nil
}

// Delete drops key, closing its window early.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
