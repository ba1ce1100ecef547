package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/nikhilbhutani/medalchat/internal/identity"
)

// Counter increments key and returns its value within the current window.
// The first increment of a window starts its expiry.
type Counter interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimiter allows limit requests per window for each caller. Callers are
// identified by user ID once authenticated, otherwise by remote address.
// Counter failures let the request through.
type RateLimiter struct {
	counter Counter
	limit   int64
	window  time.Duration
	logger  *slog.Logger
}

func NewRateLimiter(counter Counter, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		counter: counter,
		limit:   int64(limit),
		window:  window,
		logger:  slog.Default().With("component", "ratelimit"),
	}
}

func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		key := "ratelimit:ip:" + clientIP(r)
		if u, ok := identity.FromContext(r.Context()); ok {
			key = fmt.Sprintf("ratelimit:user:%d", u.ID)
		}

		n, err := rl.counter.Increment(r.Context(), key, rl.window)
		if err != nil {
			rl.logger.Warn("rate limit counter unavailable", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(rl.limit, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(max(rl.limit-n, 0), 10))

		if n > rl.limit {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP drops the ephemeral port so every connection from one host
// shares a bucket.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

type window struct {
	count   int64
	expires time.Time
}

// LocalCounter is an in-process Counter for single-instance deployments
// without Redis.
type LocalCounter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

func NewLocalCounter() *LocalCounter {
	return &LocalCounter{windows: make(map[string]*window), now: time.Now}
}

func (c *LocalCounter) Increment(_ context.Context, key string, d time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	w, ok := c.windows[key]
	if !ok || !now.Before(w.expires) {
		w = &window{expires: now.Add(d)}
		c.windows[key] = w
	}
	w.count++
	return w.count, nil
}

// Cleanup drops expired windows every interval until ctx is done.
func (c *LocalCounter) Cleanup(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.sweep()
		}
	}
}

func (c *LocalCounter) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, w := range c.windows {
		if !now.Before(w.expires) {
			delete(c.windows, k)
		}
	}
}
