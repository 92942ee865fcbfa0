package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ehr/records/internal/platform/auth"
	"github.com/ehr/records/internal/platform/tenant"
)

func TestRateLimit_Burst(t *testing.T) {
	tests := []struct {
		name    string
		rps     float64
		burst   int
		allowed int
	}{
		{"within burst", 10, 5, 5},
		{"burst of two", 1, 2, 2},
		{"single token", 1, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			handler := RateLimit(RateLimitConfig{RequestsPerSecond: tt.rps, BurstSize: tt.burst})(func(c echo.Context) error {
				return c.String(http.StatusOK, "ok")
			})

			for i := 0; i < tt.allowed; i++ {
				c, rec := requestAs(e, "alice", "org-a")
				if err := handler(c); err != nil {
					t.Fatalf("request %d: expected no error, got %v", i+1, err)
				}
				if got := rec.Header().Get("X-RateLimit-Limit"); got != strconv.FormatFloat(tt.rps, 'f', 0, 64) {
					t.Errorf("request %d: unexpected X-RateLimit-Limit %q", i+1, got)
				}
			}

			c, rec := requestAs(e, "alice", "org-a")
			err := handler(c)
			var he *echo.HTTPError
			if !errors.As(err, &he) || he.Code != http.StatusTooManyRequests {
				t.Fatalf("expected 429, got %v", err)
			}
			retry, convErr := strconv.Atoi(rec.Header().Get("Retry-After"))
			if convErr != nil || retry < 1 {
				t.Errorf("expected Retry-After >= 1, got %q", rec.Header().Get("Retry-After"))
			}
			if rec.Header().Get("X-RateLimit-Remaining") != "0" {
				t.Errorf("expected X-RateLimit-Remaining 0, got %q", rec.Header().Get("X-RateLimit-Remaining"))
			}
		})
	}
}

func TestRateLimit_SkipsPublicPaths(t *testing.T) {
	e := echo.New()
	handler := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	for i := 0; i < 3; i++ {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), httptest.NewRecorder())
		c.SetPath("/health")
		if err := handler(c); err != nil {
			t.Fatalf("request %d: expected /health to bypass the limiter, got %v", i+1, err)
		}
	}
}

func requestAs(e *echo.Echo, subject, org string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := req.Context()
	if subject != "" {
		ctx = auth.WithPrincipal(ctx, &auth.Principal{Authenticated: true, Subject: subject})
	}
	if org != "" {
		var cell *tenant.Context
		ctx, cell = tenant.WithContext(ctx)
		cell.Set(org)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req.WithContext(ctx), rec), rec
}

func TestRateLimit_PerCallerIsolation(t *testing.T) {
	cfg := RateLimitConfig{
		RequestsPerSecond: 1,
		BurstSize:         1,
	}

	e := echo.New()
	handler := RateLimit(cfg)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	c, _ := requestAs(e, "alice", "org-a")
	if err := handler(c); err != nil {
		t.Fatalf("alice first request: expected no error, got %v", err)
	}
	c, _ = requestAs(e, "alice", "org-a")
	if err := handler(c); err == nil {
		t.Fatal("alice second request: expected rate limit error")
	}

	// Same IP, different callers and tenants get their own buckets.
	c, _ = requestAs(e, "bob", "org-a")
	if err := handler(c); err != nil {
		t.Fatalf("bob first request: expected no error, got %v", err)
	}
	c, _ = requestAs(e, "alice", "org-b")
	if err := handler(c); err != nil {
		t.Fatalf("alice in org-b: expected no error, got %v", err)
	}
}

func TestRateKey(t *testing.T) {
	e := echo.New()
	tests := []struct {
		subject, org, want string
	}{
		{"", "", "ip:192.0.2.1"},
		{"alice", "", "user:alice"},
		{"alice", "org-a", "org-a:alice"},
	}
	for _, tt := range tests {
		c, _ := requestAs(e, tt.subject, tt.org)
		if got := rateKey(c); got != tt.want {
			t.Errorf("rateKey(%q, %q) = %q, want %q", tt.subject, tt.org, got, tt.want)
		}
	}
}

func TestRateLimit_DefaultConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond != 50 {
		t.Errorf("expected RequestsPerSecond 50, got %f", cfg.RequestsPerSecond)
	}
	if cfg.BurstSize != 100 {
		t.Errorf("expected BurstSize 100, got %d", cfg.BurstSize)
	}
}

func TestBucket_Refill(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := &bucket{tokens: 1, lastSeen: start}

	if ok, _ := b.take(start, 2, 1); !ok {
		t.Fatal("expected first token")
	}
	ok, retry := b.take(start, 2, 1)
	if ok || retry != 1 {
		t.Fatalf("expected empty bucket with retry 1, got %v %d", ok, retry)
	}
	if ok, _ := b.take(start.Add(500*time.Millisecond), 2, 1); !ok {
		t.Error("expected a token after half a second at 2 rps")
	}
}

func TestBucket_ZeroRate(t *testing.T) {
	now := time.Now()
	b := &bucket{lastSeen: now}
	if ok, retry := b.take(now, 0, 1); ok || retry != 1 {
		t.Errorf("expected denial with retry 1, got %v %d", ok, retry)
	}
}

func TestLimiter_EvictsIdleBuckets(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newLimiter(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTTL: time.Minute})
	l.now = func() time.Time { return clock }

	l.allow("a")
	l.allow("b")
	if l.size() != 2 {
		t.Fatalf("expected 2 buckets, got %d", l.size())
	}

	clock = clock.Add(2 * time.Minute)
	l.allow("c")
	if l.size() != 1 {
		t.Errorf("expected idle buckets evicted, got %d", l.size())
	}
}
