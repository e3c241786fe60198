package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/time/rate"

	"listings-api-go/metrics"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestGetLimiterReusesPerIP(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(1), 5)

	a := limiter.GetLimiter("10.0.0.1")
	b := limiter.GetLimiter("10.0.0.1")
	c := limiter.GetLimiter("10.0.0.2")

	if a != b {
		t.Error("Expected the same limiter for the same address")
	}
	if a == c {
		t.Error("Expected distinct limiters for distinct addresses")
	}
}

func TestRateLimitMiddlewareRejectsAfterBurst(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(0.001), 2)
	handler := RateLimitMiddleware(limiter, metrics.New())(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/api/listings/sokmil", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("Request %d within burst rejected with %d", i, rec.Code)
		}
	}

	req := httptest.NewRequest("GET", "/api/listings/sokmil", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429 past burst, got %d", rec.Code)
	}
}

func TestRateLimitMiddlewareIsolatesClients(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(0.001), 1)
	handler := RateLimitMiddleware(limiter, metrics.New())(okHandler())

	first := httptest.NewRequest("GET", "/api/listings/sokmil", nil)
	first.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)

	exhausted := httptest.NewRequest("GET", "/api/listings/sokmil", nil)
	exhausted.RemoteAddr = "10.0.0.1:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, exhausted)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429 for exhausted client, got %d", rec.Code)
	}

	other := httptest.NewRequest("GET", "/api/listings/sokmil", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected fresh client allowed, got %d", rec.Code)
	}
}

func TestRateLimitMiddlewareExemptsHealth(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(0.001), 0)
	handler := RateLimitMiddleware(limiter, metrics.New())(okHandler())

	req := httptest.NewRequest("GET", "/health", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected health probe exempt from rate limiting, got %d", rec.Code)
	}
}

func TestAdminTokenMiddleware(t *testing.T) {
	handler := AdminTokenMiddleware("secret", []string{"/maintenance/"})(okHandler())

	// Unprotected path passes without a token.
	req := httptest.NewRequest("GET", "/api/listings/sokmil", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected unprotected path allowed, got %d", rec.Code)
	}

	// Protected path without token.
	req = httptest.NewRequest("POST", "/maintenance/purge", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without token, got %d", rec.Code)
	}

	// Wrong token.
	req = httptest.NewRequest("POST", "/maintenance/purge", nil)
	req.Header.Set("X-Admin-Token", "wrong")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 with wrong token, got %d", rec.Code)
	}

	// Correct token.
	req = httptest.NewRequest("POST", "/maintenance/purge", nil)
	req.Header.Set("X-Admin-Token", "secret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 with valid token, got %d", rec.Code)
	}
}

func TestAdminTokenMiddlewareUnconfigured(t *testing.T) {
	handler := AdminTokenMiddleware("", []string{"/maintenance/"})(okHandler())

	req := httptest.NewRequest("POST", "/maintenance/purge", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected unconfigured guard to allow, got %d", rec.Code)
	}
}
