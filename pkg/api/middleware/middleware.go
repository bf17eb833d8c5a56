package middleware

import (
	"net/http"
	"time"

	"github.com/parlor/pelmanism/pkg/log"
)

// NewLoggingMiddleware logs every request with its duration. Watch
// requests show up with long durations; that is the long poll, not a
// slow handler.
func NewLoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Debug("%s %s took %s", r.Method, r.URL.Path, time.Since(start))
		})
	}
}
