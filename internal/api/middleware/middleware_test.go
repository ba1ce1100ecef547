package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nikhilbhutani/medalchat/internal/identity"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimiterPerUser(t *testing.T) {
	rl := NewRateLimiter(NewLocalCounter(), 2, time.Minute)
	h := rl.Limit(okHandler)

	do := func(userID int64) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", nil)
		req = req.WithContext(identity.WithUser(req.Context(), identity.User{ID: userID}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := do(1); code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, code)
		}
	}
	if code := do(1); code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", code)
	}
	if code := do(2); code != http.StatusOK {
		t.Fatalf("other user status = %d, want 200", code)
	}
}

type failingCounter struct{}

func (failingCounter) Increment(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("redis: connection refused")
}

func TestRateLimiterFailsOpen(t *testing.T) {
	h := NewRateLimiter(failingCounter{}, 1, time.Minute).Limit(okHandler)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}
}

func TestLocalCounterWindowExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLocalCounter()
	c.now = func() time.Time { return now }

	ctx := context.Background()
	c.Increment(ctx, "k", time.Minute)
	if n, _ := c.Increment(ctx, "k", time.Minute); n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}
	now = now.Add(time.Minute)
	if n, _ := c.Increment(ctx, "k", time.Minute); n != 1 {
		t.Fatalf("after expiry n = %d, want 1", n)
	}
}

type keyRecorder struct{ keys []string }

func (k *keyRecorder) Increment(_ context.Context, key string, _ time.Duration) (int64, error) {
	k.keys = append(k.keys, key)
	return 1, nil
}

func TestRateLimiterKeysAnonymousCallersByHost(t *testing.T) {
	rec := &keyRecorder{}
	h := NewRateLimiter(rec, 5, time.Minute).Limit(okHandler)

	for _, addr := range []string{"203.0.113.9:51000", "203.0.113.9:51001", "198.51.100.4"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = addr
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	want := []string{"ratelimit:ip:203.0.113.9", "ratelimit:ip:203.0.113.9", "ratelimit:ip:198.51.100.4"}
	if len(rec.keys) != len(want) {
		t.Fatalf("keys = %v", rec.keys)
	}
	for i := range want {
		if rec.keys[i] != want[i] {
			t.Fatalf("key[%d] = %q, want %q", i, rec.keys[i], want[i])
		}
	}
}

func TestLocalCounterSweepDropsExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLocalCounter()
	c.now = func() time.Time { return now }

	ctx := context.Background()
	c.Increment(ctx, "short", time.Second)
	c.Increment(ctx, "long", time.Hour)
	now = now.Add(time.Minute)
	c.sweep()

	if _, ok := c.windows["short"]; ok {
		t.Fatal("expired window kept")
	}
	if _, ok := c.windows["long"]; !ok {
		t.Fatal("live window dropped")
	}
}

func TestLocalCounterCleanupStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewLocalCounter().Cleanup(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Cleanup did not return after cancel")
	}
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"http://localhost:5173"})(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/chat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allow origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unknown origin echoed: %q", got)
	}
}
