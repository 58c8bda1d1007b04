// Package requesttime pins a single "now" to each HTTP request. Every
// derivation inside one request then evaluates at the same instant, so the
// active plan, the due-for-review flag, and the incident window cannot
// disagree about what time it is.
package requesttime

import (
	"net/http"
	"time"

	"casefile/pkg/requestcontext"
)

// Middleware captures the time at the start of the request and stores it in
// the context; requestcontext.Now reads it back.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
