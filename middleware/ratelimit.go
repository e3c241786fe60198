package middleware

import (
	"math"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"listings-api-go/logcolors"
	"listings-api-go/metrics"
	"listings-api-go/stats"
)

// IPRateLimiter manages a token bucket per client address
type IPRateLimiter struct {
	ips   map[string]*rate.Limiter
	mu    sync.RWMutex
	rate  rate.Limit
	burst int
}

// NewIPRateLimiter creates a per-IP rate limiter
func NewIPRateLimiter(r rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:   make(map[string]*rate.Limiter),
		rate:  r,
		burst: burst,
	}
}

// GetLimiter returns the limiter for an address, creating it on first sight
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.RLock()
	limiter, exists := i.ips[ip]
	i.mu.RUnlock()
	if exists {
		return limiter
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if limiter, exists = i.ips[ip]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(i.rate, i.burst)
	i.ips[ip] = limiter
	return limiter
}

// Tokens returns the whole tokens currently available for an address
func (i *IPRateLimiter) Tokens(ip string) int {
	return int(math.Floor(i.GetLimiter(ip).Tokens()))
}

// Burst returns the configured burst limit
func (i *IPRateLimiter) Burst() int {
	return i.burst
}

// RateLimitMiddleware rejects clients that exceed their token bucket with a
// 429. Health and metrics probes are exempt.
func RateLimitMiddleware(limiter *IPRateLimiter, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			if !limiter.GetLimiter(ip).Allow() {
				log.Warnf("%s Client %s exceeded rate limit for %s", logcolors.LogRateLimit, ip, r.URL.Path)
				stats.Get().RecordRateLimitExceeded()
				m.IncRateLimitRejected()

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"Rate limit exceeded","message":"Too many requests, slow down"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
