package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimiter is a fixed-window limiter keyed by client IP and shared across
// instances through Redis.
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
	prefix string
	log    *zap.Logger
}

func NewRateLimiter(client *redis.Client, prefix string, limit int, window time.Duration, log *zap.Logger) *RateLimiter {
	return &RateLimiter{redis: client, limit: limit, window: window, prefix: prefix, log: log}
}

func (rl *RateLimiter) key(r *http.Request) string {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return fmt.Sprintf("ratelimit:%s:%s", rl.prefix, ip)
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := rl.key(r)

		count, err := rl.redis.Incr(ctx, key).Result()
		if err != nil {
			// Redis outages must not lock users out.
			rl.log.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			if err := rl.redis.Expire(ctx, key, rl.window).Err(); err != nil {
				rl.log.Warn("failed to set rate limit window", zap.String("key", key), zap.Error(err))
			}
		}

		if count > int64(rl.limit) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.", r)
			return
		}

		next.ServeHTTP(w, r)
	})
}
