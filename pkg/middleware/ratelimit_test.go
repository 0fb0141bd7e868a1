package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Allow(t *testing.T) {
	limiter := NewRateLimiter(&RateLimitConfig{
		RequestsPerWindow: 2,
		WindowDuration:    time.Minute,
		BurstSize:         0,
	})

	assert.True(t, limiter.Allow("ip:1.2.3.4"))
	assert.True(t, limiter.Allow("ip:1.2.3.4"))
	assert.False(t, limiter.Allow("ip:1.2.3.4"))

	// A different key has its own bucket.
	assert.True(t, limiter.Allow("ip:5.6.7.8"))
}

func TestRateLimiter_Remaining(t *testing.T) {
	limiter := NewRateLimiter(&RateLimitConfig{
		RequestsPerWindow: 5,
		WindowDuration:    time.Minute,
		BurstSize:         0,
	})

	assert.Equal(t, 5, limiter.Remaining("ip:1.2.3.4"))
	limiter.Allow("ip:1.2.3.4")
	assert.Equal(t, 4, limiter.Remaining("ip:1.2.3.4"))
}

func TestRateLimitMiddleware_Headers(t *testing.T) {
	m := NewRateLimitMiddleware()
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/teams", nil)
	req.RemoteAddr = "1.2.3.4:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimitMiddleware_Exceeded(t *testing.T) {
	m := &RateLimitMiddleware{
		userLimiter: NewRateLimiter(PerUserRateLimitConfig()),
		anonymousLimiter: NewRateLimiter(&RateLimitConfig{
			RequestsPerWindow: 1,
			WindowDuration:    time.Minute,
			BurstSize:         0,
		}),
	}
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/teams", nil)
	req.RemoteAddr = "1.2.3.4:1234"

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestDistributedRateLimiter_Allow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	limiter := NewDistributedRateLimiter(client, &RateLimitConfig{
		RequestsPerWindow: 2,
		WindowDuration:    time.Minute,
	}, "test")
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "user:1")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "user:1")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "user:1")
	require.NoError(t, err)
	assert.False(t, allowed)

	remaining, err := limiter.Remaining(ctx, "user:1")
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestDistributedRateLimiter_Reset(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	limiter := NewDistributedRateLimiter(client, &RateLimitConfig{
		RequestsPerWindow: 1,
		WindowDuration:    time.Minute,
	}, "test")
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "user:1")
	require.NoError(t, err)
	require.True(t, allowed)

	require.NoError(t, limiter.Reset(ctx, "user:1"))

	allowed, err = limiter.Allow(ctx, "user:1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestDistributedRateLimitMiddleware_FailsOpenOnRedisError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	m := NewDistributedRateLimitMiddleware(client)
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/teams", nil)
	req.RemoteAddr = "1.2.3.4:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
