package v1

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"task-assistant/internal/security"
)

// fakeRateLimitStore counts per key in memory and can simulate a
// redis outage.
type fakeRateLimitStore struct {
	counts    map[string]int64
	incrErr   error
	expireErr error
	expired   []string
}

func (f *fakeRateLimitStore) Incr(_ context.Context, key string) (int64, error) {
	if f.incrErr != nil {
		return 0, f.incrErr
	}
	if f.counts == nil {
		f.counts = make(map[string]int64)
	}
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeRateLimitStore) Expire(_ context.Context, key string, _ time.Duration) error {
	f.expired = append(f.expired, key)
	return f.expireErr
}

func newTestRateLimiter(store rateLimitStore, requests int) *RateLimiter {
	return &RateLimiter{
		logger:   zerolog.Nop(),
		store:    store,
		monitor:  security.NewMonitor(zerolog.Nop()),
		requests: requests,
		window:   time.Minute,
	}
}

func rateLimitedRouter(limiter *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ping", limiter.Middleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func TestRateLimiterUnderLimit(t *testing.T) {
	store := &fakeRateLimitStore{}
	router := rateLimitedRouter(newTestRateLimiter(store, 2))

	for i := 0; i < 2; i++ {
		w := performRequest(router, http.MethodGet, "/ping", nil, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected %d, got %d", i+1, http.StatusOK, w.Code)
		}
	}
	if len(store.expired) != 1 {
		t.Errorf("expected expiry set once for the window key, got %d", len(store.expired))
	}
}

func TestRateLimiterOverLimit(t *testing.T) {
	store := &fakeRateLimitStore{}
	router := rateLimitedRouter(newTestRateLimiter(store, 2))

	for i := 0; i < 2; i++ {
		performRequest(router, http.MethodGet, "/ping", nil, nil)
	}
	w := performRequest(router, http.MethodGet, "/ping", nil, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected %d, got %d", http.StatusTooManyRequests, w.Code)
	}

	body := decodeBody(t, w)
	if body["success"] != false {
		t.Errorf("expected success=false, got %v", body["success"])
	}
	if body["error"] != "rate limit exceeded" {
		t.Errorf("unexpected error message: %v", body["error"])
	}
}

func TestRateLimiterFailsOpenOnRedisError(t *testing.T) {
	store := &fakeRateLimitStore{incrErr: errors.New("connection refused")}
	router := rateLimitedRouter(newTestRateLimiter(store, 1))

	for i := 0; i < 3; i++ {
		w := performRequest(router, http.MethodGet, "/ping", nil, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected fail-open %d, got %d", i+1, http.StatusOK, w.Code)
		}
	}
}

func TestRateLimiterExpireErrorDoesNotBlock(t *testing.T) {
	store := &fakeRateLimitStore{expireErr: errors.New("connection reset")}
	router := rateLimitedRouter(newTestRateLimiter(store, 2))

	w := performRequest(router, http.MethodGet, "/ping", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, w.Code)
	}
}
