package middleware

import (
	"context"
	"encoding/json"
	"net/http"
)

type contextKey string

const sessionContextKey contextKey = "session"

// StartSession attaches the caller's gallery session to the request context and
// refreshes its cookie. Visitors without a valid session get a new one. When no
// session can be created the request fails with 503 and the reason.
func StartSession(sm *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := sm.GetSessionFromRequest(r)
			if session == nil {
				var err error
				session, err = sm.CreateSession()
				if err != nil {
					writeError(w, http.StatusServiceUnavailable, err.Error())
					return
				}
			}
			sm.SetSessionCookie(w, r, session)

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession attaches the caller's existing gallery session to the request
// context. Requests without a valid session fail with 401.
func RequireSession(sm *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := sm.GetSessionFromRequest(r)
			if session == nil {
				writeError(w, http.StatusUnauthorized, "no session")
				return
			}

			// Add session to context
			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// GetSessionFromContext retrieves the session from the request context
func GetSessionFromContext(ctx context.Context) *Session {
	session, ok := ctx.Value(sessionContextKey).(*Session)
	if !ok {
		return nil
	}
	return session
}

// SetSessionInContext adds a session to the context.
// This is primarily for testing - use RequireSession middleware in production.
func SetSessionInContext(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}
