package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"beacon/internal/core/contracts"
)

type stubLimiter struct {
	allow bool
	info  contracts.RateInfo
	err   error

	keys []string
}

func (l *stubLimiter) Allow(ctx context.Context, key string) (bool, contracts.RateInfo, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.info, l.err
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitAllowsUnderBudget(t *testing.T) {
	reset := time.Now().Add(time.Minute).Unix()
	limiter := &stubLimiter{allow: true, info: contracts.RateInfo{Limit: 100, Remaining: 57, ResetAt: reset}}
	handler := RateLimit(limiter)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1.0/items", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "57" {
		t.Fatalf("X-RateLimit-Remaining = %q, want 57", got)
	}
	if got := rec.Header().Get("X-RateLimit-Limit"); got != "100" {
		t.Fatalf("X-RateLimit-Limit = %q, want 100", got)
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != "10.1.2.3" {
		t.Fatalf("limiter keys = %v, want [10.1.2.3]", limiter.keys)
	}
}

func TestRateLimitRejectsOverBudget(t *testing.T) {
	limiter := &stubLimiter{allow: false, info: contracts.RateInfo{Limit: 5, Remaining: 0, ResetAt: time.Now().Unix()}}
	handler := RateLimit(limiter)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1.0/items", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q", ct)
	}
}

func TestRateLimitFailOpen(t *testing.T) {
	limiter := &stubLimiter{err: errors.New("redis down")}
	handler := RateLimit(limiter)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1.0/items", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status with failing limiter = %d, want 200", rec.Code)
	}
}

func TestRateLimitExcludedPaths(t *testing.T) {
	limiter := &stubLimiter{allow: false}
	handler := RateLimit(limiter, "/api/-/", "/metrics")(okHandler())

	for _, path := range []string{"/api/-/health", "/api/-/ready", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, want 200", path, rec.Code)
		}
	}
	if len(limiter.keys) != 0 {
		t.Fatalf("limiter consulted for excluded paths: %v", limiter.keys)
	}
}

func TestRateLimitForwardedForKey(t *testing.T) {
	limiter := &stubLimiter{allow: true}
	handler := RateLimit(limiter)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if len(limiter.keys) != 1 || limiter.keys[0] != "203.0.113.9" {
		t.Fatalf("limiter key = %v, want the first forwarded hop", limiter.keys)
	}
}
