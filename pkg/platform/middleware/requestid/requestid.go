package requestid

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"policycheck/pkg/requestcontext"
)

// Header is the correlation header read from and echoed to clients.
const Header = "X-Request-ID"

const maxLength = 128

// Middleware propagates the caller's X-Request-ID (or a fresh UUID when the
// header is missing or oversized) into the request context and echoes it on
// the response. Apply it before handlers that log.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(Header))
		if id == "" || len(id) > maxLength {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithRequestID(r.Context(), id)))
	})
}
