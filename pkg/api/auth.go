// API authentication middleware: static bearer token.
//
// When server.api_key is set, every request except GET /api/health must carry
//
//	Authorization: Bearer <api_key>
//
// or
//
//	X-API-Key: <api_key>
//
// WebSocket clients that cannot set headers may pass ?token=<api_key>.
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/plot451/plot/pkg/logger"
)

// authMiddleware wraps a handler with bearer token checking. An empty apiKey
// makes it a pass-through.
func authMiddleware(apiKey string, next http.Handler) http.Handler {
	if apiKey == "" {
		logger.WarnC("auth", "API auth disabled, no api_key configured")
		return next
	}

	logger.InfoC("auth", "API bearer token auth enabled")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/health" || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if !tokenValid(extractToken(r), apiKey) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="plot"`)
			writeError(w, http.StatusUnauthorized, "unauthorized: bearer token required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractToken pulls the token from the Authorization header, the X-API-Key
// header or the token query parameter, in that order.
func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(after)
		}
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return strings.TrimSpace(key)
	}
	return r.URL.Query().Get("token")
}

// tokenValid compares in constant time.
func tokenValid(provided, expected string) bool {
	if provided == "" || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}
