package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sakif/swipejobs/internal/model"
)

// contextKey is an unexported type used for context keys in this package,
// so no other package can read or shadow the values stored under it.
type contextKey string

const (
	userIDKey contextKey = "userID"
	tokenKey  contextKey = "sessionToken"
)

// SessionCookie is the cookie the login handler sets and the middleware reads.
const SessionCookie = "session_token"

// SessionResolver turns a presented token into its live session.
// Implemented by service.SessionService.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*model.Session, error)
}

// RequireSession is a middleware that enforces a valid session.
//
// The token is read from "Authorization: Bearer <token>" first and from the
// session_token cookie second. On success the user id and the raw token are
// stored in the request context; otherwise the chain stops with 401.
func RequireSession(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				unauthorized(w)
				return
			}

			s, err := sessions.Resolve(r.Context(), token)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, s.UserID)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"valid session required"}`))
}

// TokenFromRequest extracts the session token from the Authorization header
// or the session cookie. Returns "" when neither is present.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// UserIDFromContext retrieves the authenticated user's ID from the request context.
// Returns ("", false) outside RequireSession.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// TokenFromContext returns the raw session token the request authenticated with.
func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenKey).(string)
	return t, ok && t != ""
}

// WithUserID returns a context carrying userID as if RequireSession had run.
// Handler tests use it to skip session setup.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}
