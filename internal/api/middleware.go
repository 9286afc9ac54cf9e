// Package api implements the Raido REST API using chi.
package api

import (
	"net/http"
	"strings"

	"github.com/starford/raido/internal/session"
)

// GateMiddleware returns middleware that validates a session token issued
// by the password gate. If enabled is false, all requests pass through.
// Otherwise requests must carry "Authorization: Bearer <token>" with a
// token obtained from POST /session.
func GateMiddleware(enabled bool, sessions *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			token := strings.TrimPrefix(auth, "Bearer ")
			if !strings.HasPrefix(auth, "Bearer ") || !sessions.Valid(token) {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
