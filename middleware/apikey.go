package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"listings-api-go/logcolors"
)

// AdminTokenMiddleware guards maintenance endpoints with the X-Admin-Token
// header. When no token is configured the guard logs a warning and lets
// requests through, so a fresh deployment is usable before secrets exist.
func AdminTokenMiddleware(token string, protectedPrefixes []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			protected := false
			for _, prefix := range protectedPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					protected = true
					break
				}
			}
			if !protected {
				next.ServeHTTP(w, r)
				return
			}

			if token == "" {
				log.Warnf("%s Admin token not configured, allowing %s", logcolors.LogAdminKey, r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get("X-Admin-Token")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				log.Warnf("%s Rejected %s from %s", logcolors.LogAdminKey, r.URL.Path, clientIP(r))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"Unauthorized","message":"Provide a valid token via X-Admin-Token header"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
