package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func refreshRequest(remote string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/words/refresh", nil)
	req.RemoteAddr = remote
	return req
}

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	defer rl.Stop()

	handler := rl.Limit(10)(okHandler())

	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, refreshRequest("1.2.3.4:1234"))
		assert.Equal(t, http.StatusOK, rec.Code, "request %d should be allowed", i)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	defer rl.Stop()

	handler := rl.Limit(5)(okHandler())

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, refreshRequest("1.2.3.4:1234"))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, refreshRequest("1.2.3.4:1234"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "13", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
}

func TestRateLimiter_KeysByHostNotPort(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	defer rl.Stop()

	handler := rl.Limit(1)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, refreshRequest("1.2.3.4:1000"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, refreshRequest("1.2.3.4:2000"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, "a new port is the same client")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, refreshRequest("5.6.7.8:1000"))
	assert.Equal(t, http.StatusOK, rec.Code, "another client has its own bucket")
}

func TestRateLimiter_UsesRequestIDClientIP(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	defer rl.Stop()

	handler := Chain(RequestID(), rl.Limit(1))(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, refreshRequest("9.9.9.9:1"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, refreshRequest("9.9.9.9:2"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimiter_Refills(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }
	handler := rl.Limit(60)(okHandler())

	for i := 0; i < 60; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), refreshRequest("1.1.1.1:1"))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, refreshRequest("1.1.1.1:1"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	now = now.Add(time.Second)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, refreshRequest("1.1.1.1:1"))
	assert.Equal(t, http.StatusOK, rec.Code, "one token refills per second at 60/min")
}

func TestRateLimiter_DisabledWithZeroLimit(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	defer rl.Stop()

	handler := rl.Limit(0)(okHandler())

	for i := 0; i < 100; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, refreshRequest("1.2.3.4:1"))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimiter_SweepDropsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }
	rl.getBucket("idle", 5)

	rl.sweep(now.Add(idleBucketTTL + time.Second))

	_, ok := rl.buckets.Load("idle")
	assert.False(t, ok)
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	rl.Stop()
	rl.Stop()
}
