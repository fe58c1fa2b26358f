package httpapi

import (
	"context"
	"net/http"
)

type contextKey string

const sessionIDKey contextKey = "session_id"

// SessionMiddleware requires the X-Session-Id header the storefront UI
// sends with every request and puts it on the context.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get("X-Session-Id")
		if sessionID == "" {
			respondError(w, http.StatusBadRequest, "missing_session", "X-Session-Id header is required")
			return
		}

		ctx := context.WithValue(r.Context(), sessionIDKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getSessionID(ctx context.Context) string {
	if sessionID, ok := ctx.Value(sessionIDKey).(string); ok {
		return sessionID
	}
	return ""
}
