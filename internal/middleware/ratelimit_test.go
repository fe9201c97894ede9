package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/menuhub/menuhub/internal/config"
)

// newTestLimiter returns a limiter on a fake clock that the test advances.
func newTestLimiter(requests int, period time.Duration, burst int) (*RateLimiter, *time.Time) {
	rl := NewRateLimiter(RateLimitConfig{
		Requests:        requests,
		Period:          period,
		BurstSize:       burst,
		CleanupInterval: time.Hour,
	})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func allow(t *testing.T, rl Limiter, key string) Decision {
	t.Helper()
	d, err := rl.Allow(context.Background(), key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return d
}

// ---------------------------------------------------------------------------
// Config constructors
// ---------------------------------------------------------------------------

func TestRateLimitConfigs(t *testing.T) {
	cfg := &config.RateLimitingConfig{RequestsPerMinute: 60, Burst: 10, FeedbackPerHour: 5}

	api := APIRateLimitConfig(cfg)
	if api.Requests != 60 || api.Period != time.Minute || api.BurstSize != 10 {
		t.Errorf("APIRateLimitConfig = %+v", api)
	}
	fb := FeedbackRateLimitConfig(cfg)
	if fb.Requests != 5 || fb.Period != time.Hour || fb.BurstSize != 5 {
		t.Errorf("FeedbackRateLimitConfig = %+v", fb)
	}
	if auth := AuthRateLimitConfig(); auth.Requests != 10 || auth.BurstSize != 5 {
		t.Errorf("AuthRateLimitConfig = %+v", auth)
	}
}

// ---------------------------------------------------------------------------
// RateLimiter.Allow
// ---------------------------------------------------------------------------

func TestRateLimiter_AllowsUpToBurst(t *testing.T) {
	rl, _ := newTestLimiter(60, time.Minute, 3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		d := allow(t, rl, "client-a")
		if !d.Allowed {
			t.Fatalf("request %d rejected within burst", i+1)
		}
		if d.Remaining != 2-i {
			t.Errorf("request %d Remaining = %d, want %d", i+1, d.Remaining, 2-i)
		}
	}

	d := allow(t, rl, "client-a")
	if d.Allowed {
		t.Fatal("request beyond burst was allowed")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > time.Second {
		t.Errorf("RetryAfter = %v, want (0, 1s]", d.RetryAfter)
	}
}

func TestRateLimiter_Refills(t *testing.T) {
	rl, now := newTestLimiter(10, time.Hour, 2)
	defer rl.Stop()

	allow(t, rl, "ip:1")
	allow(t, rl, "ip:1")
	if allow(t, rl, "ip:1").Allowed {
		t.Fatal("bucket should be empty")
	}

	// 10 per hour refills one token every 6 minutes.
	*now = now.Add(5 * time.Minute)
	if allow(t, rl, "ip:1").Allowed {
		t.Error("allowed before a full token refilled")
	}
	*now = now.Add(2 * time.Minute)
	if !allow(t, rl, "ip:1").Allowed {
		t.Error("rejected after a token refilled")
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl, _ := newTestLimiter(60, time.Minute, 1)
	defer rl.Stop()

	if !allow(t, rl, "a").Allowed {
		t.Fatal("first request for a rejected")
	}
	if allow(t, rl, "a").Allowed {
		t.Fatal("second request for a allowed")
	}
	if !allow(t, rl, "b").Allowed {
		t.Error("b was limited by a's bucket")
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl, _ := newTestLimiter(60, time.Minute, 1)
	rl.Stop()
	rl.Stop()
}

func TestNewLimiter_InMemoryWithoutRedis(t *testing.T) {
	l, stop := NewLimiter(nil, RateLimitConfig{Requests: 1, Period: time.Minute, BurstSize: 1}, "menuhub:")
	defer stop()
	if _, ok := l.(*RateLimiter); !ok {
		t.Errorf("NewLimiter(nil) = %T, want *RateLimiter", l)
	}
}

// ---------------------------------------------------------------------------
// RateLimitMiddleware
// ---------------------------------------------------------------------------

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (Decision, error) {
	return Decision{}, errors.New("redis: connection refused")
}

func newRateLimitRouter(l Limiter) *gin.Engine {
	r := gin.New()
	r.POST("/feedback", RateLimitMiddleware(l, "feedback"), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return r
}

func postFeedback(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/feedback", nil)
	req.RemoteAddr = ip + ":40000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware_Rejects(t *testing.T) {
	rl, _ := newTestLimiter(2, time.Hour, 2)
	defer rl.Stop()
	r := newRateLimitRouter(rl)

	for i := 0; i < 2; i++ {
		if w := postFeedback(r, "203.0.113.7"); w.Code != http.StatusCreated {
			t.Fatalf("request %d status = %d, want 201", i+1, w.Code)
		}
	}

	w := postFeedback(r, "203.0.113.7")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", got)
	}

	if w := postFeedback(r, "198.51.100.1"); w.Code != http.StatusCreated {
		t.Errorf("other client status = %d, want 201", w.Code)
	}
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	r := newRateLimitRouter(failingLimiter{})
	if w := postFeedback(r, "203.0.113.7"); w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201 when the limiter errors", w.Code)
	}
}

func TestGetRateLimitKey(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "192.0.2.10:1234"

	if got := getRateLimitKey(c); got != "ip:192.0.2.10" {
		t.Errorf("anonymous key = %q, want ip:192.0.2.10", got)
	}
	c.Set(UserIDKey, "user-1")
	if got := getRateLimitKey(c); got != "user:user-1" {
		t.Errorf("authenticated key = %q, want user:user-1", got)
	}
}
