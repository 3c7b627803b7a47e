package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/aidenappl/tracequery/env"
	"github.com/aidenappl/tracequery/responder"
)

// AuthMiddleware checks the X-Api-Key header
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// If no API key is configured, allow all requests (for development)
		if env.APIKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		if subtle.ConstantTimeCompare([]byte(r.Header.Get("X-Api-Key")), []byte(env.APIKey)) != 1 {
			responder.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		next.ServeHTTP(w, r)
	})
}
