// Package auth provides HTTP middleware for bearer token authentication.
package auth

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"
)

// NewAuthMiddleware returns an HTTP middleware that enforces bearer token
// authentication. If the configured token is empty, authentication is
// disabled and all requests pass through to the next handler unconditionally.
//
// When enabled, the middleware requires the incoming request to carry an
// Authorization header with the exact format:
//
//	Authorization: Bearer <token>
//
// The "Bearer" prefix is case-sensitive and must be followed by exactly one
// space before the token value. Any deviation results in a 401 Unauthorized
// response and the next handler is never called. Token comparison is
// constant-time.
func NewAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Auth disabled when no token is configured.
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			const prefix = "Bearer "
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, prefix) {
				reject(w, r)
				return
			}

			provided := authHeader[len(prefix):]
			if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				reject(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// reject writes a 401 and logs the source address of the failed attempt.
func reject(w http.ResponseWriter, r *http.Request) {
	log.Printf("auth: rejected request from %s", r.RemoteAddr)
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}
