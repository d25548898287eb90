// Package cache wraps the redis client used for the post list cache, rate
// limiting and the optional server-side session store. With no address an
// embedded miniredis server is started.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/quillpress/blog/logger"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
)

// ErrMiss is returned when a key is absent.
var ErrMiss = errors.New("cache: key not found")

var errDisabled = errors.New("cache: not initialized")

type Cache struct {
	client    *redis.Client
	miniRedis *miniredis.Miniredis

	// breaker guards the read-through cache only; rate limiting and sessions
	// talk to redis directly.
	breaker *gobreaker.CircuitBreaker
	loads   singleflight.Group
}

// New connects to the redis server at addr, or starts an embedded one when
// addr is empty.
func New(addr string) (*Cache, error) {
	c := &Cache{breaker: newBreaker()}
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("failed to start embedded Redis: %w", err)
		}
		c.miniRedis = mr
		c.client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		logger.Info("Embedded Redis started on", mr.Addr())
		return c, nil
	}

	c.client = redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.client.Ping(ctx).Err(); err != nil {
		_ = c.client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	logger.Info("Connected to external Redis at", addr)
	return c, nil
}

// Client returns the underlying redis client.
func (c *Cache) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.client
}

func (c *Cache) IsEmbedded() bool {
	return c != nil && c.miniRedis != nil
}

// Close closes the connection and stops the embedded server if running.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	var err error
	if c.client != nil {
		err = c.client.Close()
	}
	if c.miniRedis != nil {
		c.miniRedis.Close()
	}
	return err
}

func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if c == nil {
		return errDisabled
	}
	return c.client.Set(ctx, key, value, expiration).Err()
}

func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	if c == nil {
		return "", errDisabled
	}
	result, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return result, err
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c == nil {
		return errDisabled
	}
	return c.client.Del(ctx, keys...).Err()
}

// DeletePattern removes all keys matching a glob pattern.
func (c *Cache) DeletePattern(ctx context.Context, pattern string) error {
	if c == nil {
		return errDisabled
	}
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		return c.client.Del(ctx, keys...).Err()
	}
	return nil
}

// Incr increments key and sets its expiration when the key is new.
func (c *Cache) Incr(ctx context.Context, key string, expiration time.Duration) (int64, error) {
	if c == nil {
		return 0, errDisabled
	}
	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 && expiration > 0 {
		if err := c.client.Expire(ctx, key, expiration).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// TTL returns the remaining time to live of key.
func (c *Cache) TTL(ctx context.Context, key string) (time.Duration, error) {
	if c == nil {
		return 0, errDisabled
	}
	return c.client.TTL(ctx, key).Result()
}
