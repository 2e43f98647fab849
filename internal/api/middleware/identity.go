package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/recallmed/recall-api/internal/api/shared"
)

// UserIDHeader carries the caller's identity. The service trusts an
// upstream gateway to have authenticated the request; this layer only
// parses and propagates the ID.
const UserIDHeader = "X-User-ID"

// IdentityMiddleware extracts the user ID from the request header and
// stores it in the context under shared.UserIDContextKey. Requests without
// a parseable user ID are rejected before reaching any handler.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(UserIDHeader)
		if raw == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Missing user identity")
			return
		}

		userID, err := uuid.Parse(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid user identity")
			return
		}

		ctx := context.WithValue(r.Context(), shared.UserIDContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserIDFromContext retrieves the user ID stored by IdentityMiddleware.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(shared.UserIDContextKey).(uuid.UUID)
	return userID, ok
}
