package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/quillpress/blog/logger"
	"github.com/quillpress/blog/web/cache"
	"github.com/quillpress/blog/web/entity"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig configures rate limiting
type RateLimitConfig struct {
	RequestsPerMinute int
	KeyFunc           func(c *gin.Context) string
	// Methods limits counting to these methods; empty means all.
	Methods []string
	// OnLimit writes the response once the budget is spent.
	OnLimit func(c *gin.Context)
}

// DefaultRateLimitConfig returns default rate limit config
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 60,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
		OnLimit: func(c *gin.Context) {
			c.JSON(http.StatusTooManyRequests, entity.Msg{
				Msg: "Rate limit exceeded. Please try again later.",
			})
		},
	}
}

func (config RateLimitConfig) applies(method string) bool {
	if len(config.Methods) == 0 {
		return true
	}
	for _, m := range config.Methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

// RateLimitMiddleware counts requests per key and path in one minute windows.
// When the cache is unavailable requests are let through.
func RateLimitMiddleware(c *cache.Cache, config RateLimitConfig) gin.HandlerFunc {
	defaults := DefaultRateLimitConfig()
	if config.KeyFunc == nil {
		config.KeyFunc = defaults.KeyFunc
	}
	if config.OnLimit == nil {
		config.OnLimit = defaults.OnLimit
	}
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = defaults.RequestsPerMinute
	}

	return func(ctx *gin.Context) {
		if c == nil || !config.applies(ctx.Request.Method) {
			ctx.Next()
			return
		}

		key := config.KeyFunc(ctx)
		rateLimitKey := "ratelimit:" + key + ":" + ctx.Request.URL.Path

		count, err := c.Incr(ctx.Request.Context(), rateLimitKey, time.Minute)
		if err != nil {
			logger.Warning("Rate limit increment failed:", err)
			ctx.Next()
			return
		}

		remaining := config.RequestsPerMinute - int(count)
		if remaining < 0 {
			remaining = 0
		}
		ctx.Header("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerMinute))
		ctx.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if int(count) > config.RequestsPerMinute {
			logger.Warningf("Rate limit exceeded for %s on %s (count: %d)", key, ctx.Request.URL.Path, count)
			if ttl, err := c.TTL(ctx.Request.Context(), rateLimitKey); err == nil && ttl > 0 {
				ctx.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())+1))
			}
			config.OnLimit(ctx)
			ctx.Abort()
			return
		}

		ctx.Next()
	}
}
