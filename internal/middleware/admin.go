package middleware

import (
	"crypto/subtle"
	"net/http"
)

// RequireAdminKey gates the operator endpoints (deadlines, locks, resolves,
// fixture ingestion). Player identity is handled by an external collaborator;
// this is only the shared secret for the admin surface.
func RequireAdminKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Admin-Key")
			if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
