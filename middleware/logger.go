package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"listings-api-go/stats"
)

// ResponseRecorder wraps http.ResponseWriter to capture status and body size
type ResponseRecorder struct {
	http.ResponseWriter
	StatusCode int
	BodySize   int
}

// NewResponseRecorder creates a recorder defaulting to 200 OK
func NewResponseRecorder(w http.ResponseWriter) *ResponseRecorder {
	return &ResponseRecorder{ResponseWriter: w, StatusCode: http.StatusOK}
}

func (r *ResponseRecorder) WriteHeader(statusCode int) {
	r.StatusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *ResponseRecorder) Write(data []byte) (int, error) {
	n, err := r.ResponseWriter.Write(data)
	r.BodySize += n
	return n, err
}

// getStatusColor returns the ANSI color for a status code class
func getStatusColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "\033[32m" // green
	case statusCode >= 300 && statusCode < 400:
		return "\033[36m" // cyan
	case statusCode >= 400 && statusCode < 500:
		return "\033[33m" // yellow
	case statusCode >= 500:
		return "\033[31m" // red
	default:
		return "\033[0m"
	}
}

// normalizeEndpoint collapses parameterized paths for stats bucketing
func normalizeEndpoint(path string) string {
	if strings.HasPrefix(path, "/api/listings") {
		return "/api/listings"
	}
	if strings.HasPrefix(path, "/maintenance/purge") {
		return "/maintenance/purge"
	}
	return path
}

// LoggingMiddleware logs every request with its status, size and duration,
// and feeds the request counters.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := NewResponseRecorder(w)

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		endpoint := normalizeEndpoint(r.URL.Path)

		s := stats.Get()
		s.RecordRequest(endpoint)
		s.RecordStatusCode(rec.StatusCode)
		s.RecordResponseTime(duration, endpoint)

		log.Infof("%s%d\033[0m %s %s %dB %v from %s",
			getStatusColor(rec.StatusCode), rec.StatusCode,
			r.Method, r.URL.Path, rec.BodySize, duration, clientIP(r))
	})
}

// clientIP extracts the originating client address, preferring proxy headers
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
