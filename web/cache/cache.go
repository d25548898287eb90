package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/quillpress/blog/logger"
	"github.com/sony/gobreaker"
)

const TTLPosts = 5 * time.Minute

const (
	KeyPostsAll   = "posts:all"
	KeyPostPrefix = "post:"
)

func KeyPost(id int) string {
	return fmt.Sprintf("%s%d", KeyPostPrefix, id)
}

// GetJSON retrieves a value and unmarshals it into dest.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) error {
	val, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if val == "" {
		return fmt.Errorf("empty value for key: %s", key)
	}
	return json.Unmarshal([]byte(val), dest)
}

// SetJSON marshals value as JSON and stores it.
func (c *Cache) SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return c.Set(ctx, key, string(data), expiration)
}

func newBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "cache",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrMiss)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warningf("Cache circuit breaker changed from %s to %s", from, to)
		},
	})
}

// guarded runs fn through the circuit breaker. While the breaker is open fn
// is skipped and gobreaker.ErrOpenState is returned.
func (c *Cache) guarded(fn func() error) error {
	if c.breaker == nil {
		return fn()
	}
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, fn()
	})
	return err
}

// BreakerState reports the state of the read-through circuit breaker.
func (c *Cache) BreakerState() gobreaker.State {
	if c == nil || c.breaker == nil {
		return gobreaker.StateClosed
	}
	return c.breaker.State()
}

// GetOrSet fills dest from the cache, or from fn on a miss. fn must store its
// result in dest. Concurrent misses for the same key share one call to fn.
// Cache failures are logged and never fail the call; a nil Cache always
// calls fn.
func (c *Cache) GetOrSet(ctx context.Context, key string, dest any, expiration time.Duration, fn func() error) error {
	if c == nil {
		return fn()
	}

	err := c.guarded(func() error { return c.GetJSON(ctx, key, dest) })
	switch {
	case err == nil:
		logger.Debugf("Cache hit for key: %s", key)
		return nil
	case errors.Is(err, ErrMiss):
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		logger.Debugf("Cache bypassed for key %s: %v", key, err)
	default:
		logger.Warningf("Cache read for key %s failed: %v", key, err)
	}

	ran := false
	val, err, shared := c.loads.Do(key, func() (any, error) {
		ran = true
		if err := fn(); err != nil {
			return nil, err
		}
		data, err := json.Marshal(dest)
		if err != nil {
			return nil, err
		}
		if err := c.guarded(func() error { return c.Set(ctx, key, string(data), expiration) }); err != nil {
			logger.Warningf("Failed to set cache for key %s: %v", key, err)
		}
		return data, nil
	})
	if err != nil || ran {
		return err
	}
	if shared {
		logger.Debugf("Shared load for key: %s", key)
	}
	return json.Unmarshal(val.([]byte), dest)
}

// InvalidatePosts drops the post list and every cached post.
func (c *Cache) InvalidatePosts(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.Delete(ctx, KeyPostsAll); err != nil {
		return err
	}
	return c.DeletePattern(ctx, KeyPostPrefix+"*")
}
