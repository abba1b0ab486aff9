package middleware

import (
	"context"
	"net/http"

	"github.com/utafrali/StorefrontGo/pkg/httputil"
)

type contextKey string

const (
	userIDKey    contextKey = "user_id"
	visitorIDKey contextKey = "visitor_id"
)

// Identity reads the identity headers injected by the API gateway and stores
// them in the request context. X-Visitor-ID is mandatory: every browser
// session carries a device-scoped visitor ID. X-User-ID is present only for
// signed-in sessions; its absence is the normal anonymous-browsing state, not
// an error.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		visitorID := r.Header.Get("X-Visitor-ID")
		if visitorID == "" {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{
					Code:    "INVALID_INPUT",
					Message: "X-Visitor-ID header is required",
				},
			})
			return
		}

		ctx := context.WithValue(r.Context(), visitorIDKey, visitorID)
		if userID := r.Header.Get("X-User-ID"); userID != "" {
			ctx = context.WithValue(ctx, userIDKey, userID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserIDFromContext extracts the authenticated user ID from the request
// context. Returns "" for anonymous sessions.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// VisitorIDFromContext extracts the device-scoped visitor ID from the request context.
func VisitorIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(visitorIDKey).(string); ok {
		return id
	}
	return ""
}
