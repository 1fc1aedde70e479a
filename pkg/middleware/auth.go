package middleware

import (
	"net/http"
	"staybook/internal/identity"
	"staybook/pkg/logger"
)

// UserIDHeader carries the authenticated user id, resolved by the edge
// gateway before requests reach this service. Session handling itself is out
// of scope here; the engine only needs "current user id, or none".
const UserIDHeader = "X-User-ID"

// Authentication lifts the gateway-resolved user id into the request context
// so services can resolve the current identity without touching HTTP types.
// Requests without the header pass through anonymously; operations that need
// an identity fail with an authentication error at the service layer.
func Authentication(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID := r.Header.Get(UserIDHeader); userID != "" {
				r = r.WithContext(identity.WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}
