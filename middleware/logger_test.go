package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetStatusColor(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		expected   string
	}{
		{"2xx Success - Green", http.StatusOK, "\033[32m"},
		{"201 Created - Green", http.StatusCreated, "\033[32m"},
		{"204 No Content - Green", http.StatusNoContent, "\033[32m"},
		{"3xx Redirect - Cyan", http.StatusMovedPermanently, "\033[36m"},
		{"304 Not Modified - Cyan", http.StatusNotModified, "\033[36m"},
		{"4xx Client Error - Yellow", http.StatusBadRequest, "\033[33m"},
		{"404 Not Found - Yellow", http.StatusNotFound, "\033[33m"},
		{"429 Too Many Requests - Yellow", http.StatusTooManyRequests, "\033[33m"},
		{"5xx Server Error - Red", http.StatusInternalServerError, "\033[31m"},
		{"502 Bad Gateway - Red", http.StatusBadGateway, "\033[31m"},
		{"Edge case - 100 Continue", http.StatusContinue, "\033[0m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := getStatusColor(tt.statusCode)
			if result != tt.expected {
				t.Errorf("Expected color code %q for status %d, got %q", tt.expected, tt.statusCode, result)
			}
		})
	}
}

func TestNewResponseRecorder(t *testing.T) {
	rec := NewResponseRecorder(httptest.NewRecorder())

	if rec.StatusCode != http.StatusOK {
		t.Errorf("Expected default status code %d, got %d", http.StatusOK, rec.StatusCode)
	}
	if rec.BodySize != 0 {
		t.Errorf("Expected initial body size 0, got %d", rec.BodySize)
	}
}

func TestResponseRecorder_WriteHeader(t *testing.T) {
	statusCodes := []int{
		http.StatusOK,
		http.StatusCreated,
		http.StatusNotFound,
		http.StatusInternalServerError,
		http.StatusTooManyRequests,
	}

	for _, statusCode := range statusCodes {
		w := httptest.NewRecorder()
		rec := NewResponseRecorder(w)

		rec.WriteHeader(statusCode)

		if rec.StatusCode != statusCode {
			t.Errorf("Expected status code %d, got %d", statusCode, rec.StatusCode)
		}
		if w.Code != statusCode {
			t.Errorf("Expected underlying writer to have status code %d, got %d", statusCode, w.Code)
		}
	}
}

func TestResponseRecorder_Write(t *testing.T) {
	w := httptest.NewRecorder()
	rec := NewResponseRecorder(w)

	writes := [][]byte{
		[]byte("Hello"),
		[]byte(", "),
		[]byte("World"),
		[]byte("!"),
	}

	totalSize := 0
	for _, data := range writes {
		n, err := rec.Write(data)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		totalSize += n
	}

	if rec.BodySize != totalSize {
		t.Errorf("Expected total body size %d, got %d", totalSize, rec.BodySize)
	}
	if rec.StatusCode != http.StatusOK {
		t.Errorf("Expected implicit status code %d, got %d", http.StatusOK, rec.StatusCode)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Test response"))
	})

	middleware := LoggingMiddleware(handler)

	req := httptest.NewRequest("GET", "/test", nil)
	rec := httptest.NewRecorder()

	middleware.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, rec.Code)
	}
	if body := rec.Body.String(); body != "Test response" {
		t.Errorf("Expected body 'Test response', got %q", body)
	}
}

func TestLoggingMiddleware_DifferentStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"Success", http.StatusOK},
		{"Not Found", http.StatusNotFound},
		{"Internal Server Error", http.StatusInternalServerError},
		{"Too Many Requests", http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			})

			middleware := LoggingMiddleware(handler)
			req := httptest.NewRequest("GET", "/test", nil)
			rec := httptest.NewRecorder()

			middleware.ServeHTTP(rec, req)

			if rec.Code != tt.statusCode {
				t.Errorf("Expected status code %d, got %d", tt.statusCode, rec.Code)
			}
		})
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	cases := map[string]string{
		"/api/listings/sokmil": "/api/listings",
		"/api/listings/duga":   "/api/listings",
		"/maintenance/purge":   "/maintenance/purge",
		"/health":              "/health",
		"/stats":               "/stats",
		"/":                    "/",
	}
	for path, want := range cases {
		if got := normalizeEndpoint(path); got != want {
			t.Errorf("normalizeEndpoint(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.7:4321"
	if got := clientIP(req); got != "10.0.0.7" {
		t.Errorf("Expected 10.0.0.7, got %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.9" {
		t.Errorf("Expected first forwarded address, got %q", got)
	}
}
