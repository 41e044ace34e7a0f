// internal/api/handler/identity.go
package handler

import (
	"context"
	"net/http"
)

// UserIDHeader carries the already-authenticated user id, installed by the
// upstream auth layer. This service trusts it and performs no credential
// verification of its own.
const UserIDHeader = "X-User-ID"

type contextKey string

const userIDKey contextKey = "userID"

// Identity extracts the authenticated user id from the request headers and
// stores it on the context. Requests without an identity are rejected.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(UserIDHeader)
		if userID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Missing user identity"}`))
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserIDFromContext returns the authenticated user id, if present.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}
