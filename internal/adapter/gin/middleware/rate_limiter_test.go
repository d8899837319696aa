package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"agent-rating-service/internal/config"
)

func setupLimitedRouter(t *testing.T, cfg config.RateLimitConfig) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	// Pin the clock so token refill is driven by SetTime, not wall time.
	mr.SetTime(time.Unix(1700000000, 0))

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	rl := NewRateLimiter(client, cfg, zaptest.NewLogger(t))

	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	return r, mr
}

func pingFrom(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":12345"
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_WithinBurst(t *testing.T) {
	r, _ := setupLimitedRouter(t, config.RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 10,
		BurstCapacity:     10,
	})

	for i := 0; i < 5; i++ {
		w := pingFrom(r, "127.0.0.1")
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiter_ExceedBurst(t *testing.T) {
	r, _ := setupLimitedRouter(t, config.RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 5,
		BurstCapacity:     5,
	})

	for i := 0; i < 5; i++ {
		w := pingFrom(r, "127.0.0.1")
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := pingFrom(r, "127.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	r, mr := setupLimitedRouter(t, config.RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 2,
		BurstCapacity:     2,
	})

	for i := 0; i < 2; i++ {
		w := pingFrom(r, "127.0.0.1")
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w := pingFrom(r, "127.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// One second at 2 req/s refills two tokens.
	mr.SetTime(time.Unix(1700000001, 0))

	w = pingFrom(r, "127.0.0.1")
	assert.Equal(t, http.StatusOK, w.Code)
	w = pingFrom(r, "127.0.0.1")
	assert.Equal(t, http.StatusOK, w.Code)
	w = pingFrom(r, "127.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRateLimiter_Disabled(t *testing.T) {
	r, _ := setupLimitedRouter(t, config.RateLimitConfig{
		Enabled:           false,
		RequestsPerSecond: 1,
		BurstCapacity:     1,
	})

	for i := 0; i < 10; i++ {
		w := pingFrom(r, "127.0.0.1")
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiter_SeparateBucketPerIP(t *testing.T) {
	r, _ := setupLimitedRouter(t, config.RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 2,
		BurstCapacity:     2,
	})

	for i := 0; i < 2; i++ {
		w := pingFrom(r, "192.0.2.1")
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w := pingFrom(r, "192.0.2.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = pingFrom(r, "192.0.2.2")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter_BucketExpires(t *testing.T) {
	r, mr := setupLimitedRouter(t, config.RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 2,
		BurstCapacity:     4,
	})

	for i := 0; i < 4; i++ {
		w := pingFrom(r, "127.0.0.1")
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w := pingFrom(r, "127.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	key := "ratelimit:tb:GET:/ping:127.0.0.1"
	ttl := mr.TTL(key)
	assert.Greater(t, ttl.Seconds(), 0.0)
	assert.LessOrEqual(t, ttl.Seconds(), 60.0)
}

func TestRateLimiter_FailsOpenOnRedisError(t *testing.T) {
	r, mr := setupLimitedRouter(t, config.RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 1,
		BurstCapacity:     1,
	})

	mr.Close()

	for i := 0; i < 5; i++ {
		w := pingFrom(r, "127.0.0.1")
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
