// Package requesttime pins a single "now" for each inbound request so the
// decision log and the response body agree on when a check was answered.
package requesttime

import (
	"net/http"
	"time"

	"policycheck/pkg/requestcontext"
)

// Middleware stores the request start time in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
