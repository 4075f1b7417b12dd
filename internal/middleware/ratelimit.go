package middleware

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"loginprobe/pkg/logger"
)

// Counter is a windowed counter; *cache.RedisCache satisfies it.
type Counter interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Delete(ctx context.Context, key string) error
}

// RateLimiter applies a fixed-window limit per client IP. A successful
// (2xx) response clears the client's window, so only failed attempts count.
type RateLimiter struct {
	counter Counter
	limit   int
	window  time.Duration
	prefix  string
	logger  logger.Logger
}

// NewRateLimiter constructs a RateLimiter with the given limit and window.
func NewRateLimiter(counter Counter, limit int, window time.Duration, log logger.Logger) *RateLimiter {
	return &RateLimiter{
		counter: counter,
		limit:   limit,
		window:  window,
		prefix:  "ratelimit:login",
		logger:  log,
	}
}

// Limit enforces the rate limit, keyed by client IP.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := fmt.Sprintf("%s:%s", rl.prefix, clientIP(r))

		count, ttl, err := rl.counter.IncrementWindow(r.Context(), key, rl.window)
		if err != nil {
			rl.logger.Error("Rate limiter unavailable", map[string]interface{}{"error": err.Error()})
			jsonError(w, http.StatusInternalServerError, "Server error")
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))

		if count > int64(rl.limit) {
			if ttl <= 0 {
				ttl = rl.window
			}
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(ttl.Seconds()))))
			rl.logger.Warn("Login rate limit exceeded", map[string]interface{}{
				"request_id": RequestID(r.Context()),
				"key":        key,
			})
			jsonError(w, http.StatusTooManyRequests, "Too many login attempts, please try again later")
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(rl.limit-int(count)))

		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)

		if status := rec.Status(); status >= 200 && status < 300 {
			if err := rl.counter.Delete(r.Context(), key); err != nil {
				rl.logger.Warn("Failed to reset login rate limit", map[string]interface{}{
					"request_id": RequestID(r.Context()),
					"key":        key,
					"error":      err.Error(),
				})
			}
		}
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
