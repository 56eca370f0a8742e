package handler

import (
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"
)

// requireKey rejects requests that do not carry key in the api-key
// header. An empty key disables the check.
func requireKey(key string, log *zap.Logger, next http.Handler) http.Handler {
	if key == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if subtle.ConstantTimeCompare([]byte(r.Header.Get("api-key")), []byte(key)) != 1 {
			log.Debug("unauthorized request",
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method),
			)
			writeError(w, log, ErrUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
