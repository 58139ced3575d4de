package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour}, WithClock(clock.now))
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestAllowWithinWindow(t *testing.T) {
	rl, clock := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d rejected under the limit", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("fourth request in the window allowed")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("other client rejected")
	}

	clock.advance(59 * time.Second)
	if rl.Allow("10.0.0.1") {
		t.Error("rejected requests extended past the window")
	}
	if got := rl.RetryAfter("10.0.0.1"); got != 1 {
		t.Errorf("RetryAfter = %d, want 1", got)
	}

	clock.advance(time.Second)
	if !rl.Allow("10.0.0.1") {
		t.Error("request rejected after the window reset")
	}
}

func TestRetryAfterUnknownClient(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	if got := rl.RetryAfter("nobody"); got != 0 {
		t.Errorf("RetryAfter = %d, want 0", got)
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, clock := newTestLimiter(t, 5)

	rl.Allow("old")
	clock.advance(11 * time.Minute)
	rl.Allow("fresh")

	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if got := rl.ActiveClients(); got != 1 {
		t.Errorf("ActiveClients = %d, want 1", got)
	}
}

func TestNewLimiterDefaults(t *testing.T) {
	rl := NewLimiter(Config{})
	defer rl.Stop()

	if rl.requestsPerMinute != DefaultConfig().RequestsPerMinute {
		t.Errorf("requestsPerMinute = %d", rl.requestsPerMinute)
	}
	if rl.cleanupInterval != DefaultConfig().CleanupInterval {
		t.Errorf("cleanupInterval = %v", rl.cleanupInterval)
	}
}

func TestStopTwice(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	rl.Stop()
	rl.Stop()
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"192.0.2.1:5000", "192.0.2.1"},
		{"[::1]:8081", "::1"},
		{"pipe", "pipe"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodPost, "/actions/submit", nil)
		r.RemoteAddr = tt.remote
		r.Header.Set("X-Forwarded-For", "203.0.113.9")
		if got := ClientIP(r); got != tt.want {
			t.Errorf("ClientIP(%q) = %q, want %q", tt.remote, got, tt.want)
		}
	}
}

func TestMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("default rejection", func(t *testing.T) {
		rl, _ := newTestLimiter(t, 1)
		h := rl.Middleware(nil, nil)(ok)

		codes := make([]int, 2)
		for i := range codes {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/actions/submit", nil))
			codes[i] = rr.Code
			if i == 1 && rr.Header().Get("Retry-After") != "60" {
				t.Errorf("Retry-After = %q, want 60", rr.Header().Get("Retry-After"))
			}
		}
		if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
			t.Errorf("codes = %v", codes)
		}
	})

	t.Run("custom rejection", func(t *testing.T) {
		rl, _ := newTestLimiter(t, 1)
		var gotRetry int
		h := rl.Middleware(func(*http.Request) string { return "one" }, func(w http.ResponseWriter, r *http.Request, retry int) {
			gotRetry = retry
			w.WriteHeader(http.StatusTeapot)
		})(ok)

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/navigate", nil))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/navigate", nil))
		if rr.Code != http.StatusTeapot {
			t.Errorf("code = %d, want %d", rr.Code, http.StatusTeapot)
		}
		if gotRetry != 60 {
			t.Errorf("retry = %d, want 60", gotRetry)
		}
	})
}
