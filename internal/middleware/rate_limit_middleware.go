package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	// MaxRequests is the number of requests allowed per Window
	MaxRequests int
	Window      time.Duration
	// KeyPrefix prefixes the Redis counter keys
	KeyPrefix string
}

// ChatRateLimitConfig limits chat questions per child
func ChatRateLimitConfig(perMinute int) RateLimitConfig {
	if perMinute <= 0 {
		perMinute = 30
	}
	return RateLimitConfig{
		MaxRequests: perMinute,
		Window:      time.Minute,
		KeyPrefix:   "rl:chat",
	}
}

// RateLimiter is a fixed-window limiter backed by Redis
type RateLimiter struct {
	redisClient redis.UniversalClient
}

// NewRateLimiter creates a new RateLimiter
func NewRateLimiter(redisClient redis.UniversalClient) *RateLimiter {
	return &RateLimiter{redisClient: redisClient}
}

// LimitByAccount counts requests per authenticated account and route.
// Falls back to the client IP when no account is in the context.
func (rl *RateLimiter) LimitByAccount(cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := c.ClientIP()
		if id, ok := AccountID(c); ok {
			subject = fmt.Sprintf("acct:%d", id)
		}
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		rl.limit(c, cfg, fmt.Sprintf("%s:%s:%s", cfg.KeyPrefix, subject, path))
	}
}

// LimitByIP counts requests per client IP across a route group
func (rl *RateLimiter) LimitByIP(cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		rl.limit(c, cfg, fmt.Sprintf("%s:%s", cfg.KeyPrefix, c.ClientIP()))
	}
}

func (rl *RateLimiter) limit(c *gin.Context, cfg RateLimitConfig, key string) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	count, err := rl.redisClient.Incr(ctx, key).Result()
	if err != nil {
		// fail open on Redis errors
		log.Warn().Err(err).Str("component", "rate_limit").Str("key", key).Msg("redis error, allowing request")
		c.Next()
		return
	}

	if count == 1 {
		if err := rl.redisClient.Expire(ctx, key, cfg.Window).Err(); err != nil {
			log.Warn().Err(err).Str("component", "rate_limit").Str("key", key).Msg("failed to set ttl")
		}
	}

	remaining := cfg.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}

	ttl, _ := rl.redisClient.TTL(ctx, key).Result()
	retryAfter := int(ttl.Seconds())
	if retryAfter < 0 {
		retryAfter = int(cfg.Window.Seconds())
	}

	c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.MaxRequests))
	c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
	c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", retryAfter))

	if int(count) > cfg.MaxRequests {
		log.Info().Str("component", "rate_limit").Str("key", key).Int64("count", count).Int("limit", cfg.MaxRequests).Msg("rate limit exceeded")
		c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":       "Too many requests. Please try again later.",
			"error_type":  "rate_limited",
			"retry_after": retryAfter,
		})
		return
	}

	c.Next()
}
