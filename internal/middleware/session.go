package middleware

import (
	"context"
	"net/http"

	"personal-calendar/internal/auth"
)

// SessionCookie carries the signed session token in the browser.
const SessionCookie = "session"

// Session identifies the logged-in user for a request.
type Session struct {
	UserID   int64
	Username string
}

type ctxKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok && s.UserID != 0
}

// LoadSession decodes the session cookie, when present and valid, onto the
// request context. Requests without one pass through anonymous.
func LoadSession(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(SessionCookie)
			if err == nil && c.Value != "" {
				if claims, err := auth.ParseToken(c.Value, secret); err == nil {
					r = r.WithContext(WithSession(r.Context(), Session{
						UserID:   claims.UserID,
						Username: claims.Username,
					}))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession redirects anonymous requests to loginPath.
func RequireSession(loginPath string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFrom(r.Context()); !ok {
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
