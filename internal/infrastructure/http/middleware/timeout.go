package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds the request context to d. The emission route uses a longer
// value than the server default so the billing API call can finish. A
// non-positive d leaves the request unbounded.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
