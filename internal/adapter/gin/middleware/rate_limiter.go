package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"agent-rating-service/internal/config"
)

// tokenBucketScript implements the token bucket in Lua for atomicity.
// Bucket state per key: {last_refill_time, current_tokens}.
const tokenBucketScript = `
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])         -- tokens per second
	local capacity = tonumber(ARGV[2])     -- max tokens in bucket
	local now = tonumber(ARGV[3])          -- current timestamp
	local requested = tonumber(ARGV[4])    -- tokens requested (always 1)

	local bucket = redis.call('HMGET', key, 'last_refill', 'tokens')
	local last_refill = tonumber(bucket[1]) or now
	local tokens = tonumber(bucket[2]) or capacity

	local elapsed = math.max(0, now - last_refill)
	tokens = math.min(capacity, tokens + elapsed * rate)

	if tokens >= requested then
		tokens = tokens - requested
		redis.call('HMSET', key, 'last_refill', now, 'tokens', tokens)
		redis.call('EXPIRE', key, 60)
		return 1
	else
		redis.call('HMSET', key, 'last_refill', now, 'tokens', tokens)
		redis.call('EXPIRE', key, 60)
		return 0
	end
`

// RateLimiter throttles requests per client IP and route using a token
// bucket kept in Redis, so limits hold across service instances.
type RateLimiter struct {
	client *redis.Client
	cfg    config.RateLimitConfig
	log    *zap.Logger
}

// NewRateLimiter creates a rate limiter with the given bucket parameters.
func NewRateLimiter(client *redis.Client, cfg config.RateLimitConfig, log *zap.Logger) *RateLimiter {
	return &RateLimiter{
		client: client,
		cfg:    cfg,
		log:    log,
	}
}

// Handler returns the gin middleware. Redis failures let requests through
// rather than taking the API down with the limiter.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.cfg.Enabled || rl.client == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()

		// Buckets are keyed by route pattern, not raw path, so /agents/1
		// and /agents/2 share a bucket.
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := fmt.Sprintf("ratelimit:tb:%s:%s:%s", c.Request.Method, route, c.ClientIP())

		// Redis server time keeps refill math consistent across instances.
		serverTime, err := rl.client.Time(ctx).Result()
		if err != nil {
			rl.log.Warn("rate limiter redis error, allowing request",
				zap.String("key", key),
				zap.Error(err))
			c.Next()
			return
		}

		allowed, err := rl.client.Eval(ctx, tokenBucketScript, []string{key},
			rl.cfg.RequestsPerSecond,
			rl.cfg.BurstCapacity,
			serverTime.Unix(),
			1,
		).Int64()
		if err != nil {
			rl.log.Warn("rate limiter redis error, allowing request",
				zap.String("key", key),
				zap.Error(err))
			c.Next()
			return
		}

		if allowed == 0 {
			rl.log.Warn("rate limit exceeded",
				zap.String("client_ip", c.ClientIP()),
				zap.String("method", c.Request.Method),
				zap.String("route", route))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": fmt.Sprintf("rate limit exceeded: %.2f requests/second (burst capacity: %d)", rl.cfg.RequestsPerSecond, rl.cfg.BurstCapacity),
			})
			return
		}

		c.Next()
	}
}
