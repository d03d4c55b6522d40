package v1

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/rueidis"
	"github.com/rs/zerolog"

	"task-assistant/internal/security"
)

// rateLimitStore is the slice of redis the limiter needs.
type rateLimitStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

type redisRateLimitStore struct {
	client rueidis.Client
}

func (s redisRateLimitStore) Incr(ctx context.Context, key string) (int64, error) {
	return s.client.Do(ctx, s.client.B().Incr().Key(key).Build()).AsInt64()
}

func (s redisRateLimitStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Do(ctx, s.client.B().Expire().
		Key(key).
		Seconds(int64(ttl.Seconds())).
		Build()).Error()
}

// RateLimiter counts requests per client IP in fixed redis windows.
// Redis failures let the request through: throttling is protection,
// not a dependency the API should die on.
type RateLimiter struct {
	logger   zerolog.Logger
	store    rateLimitStore
	monitor  *security.Monitor
	requests int
	window   time.Duration
}

func NewRateLimiter(
	logger zerolog.Logger,
	client rueidis.Client,
	monitor *security.Monitor,
	requests int,
	window time.Duration,
) *RateLimiter {
	return &RateLimiter{
		logger:   logger,
		store:    redisRateLimitStore{client: client},
		monitor:  monitor,
		requests: requests,
		window:   window,
	}
}

func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		windowStart := time.Now().Unix() / int64(l.window.Seconds())
		key := fmt.Sprintf("ratelimit:%s:%d", ip, windowStart)

		count, err := l.store.Incr(c, key)
		if err != nil {
			l.logger.Warn().
				Err(err).
				Msg("rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		if count == 1 {
			err = l.store.Expire(c, key, l.window)
			if err != nil {
				l.logger.Warn().
					Err(err).
					Msg("failed to set rate limit key expiry")
			}
		}

		if count > int64(l.requests) {
			l.monitor.LogRateLimited(ip, c.FullPath())
			abort(c, newTooManyRequestsError("rate limit exceeded"))
			return
		}

		c.Next()
	}
}
