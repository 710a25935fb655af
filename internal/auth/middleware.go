package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/ziadkadry99/ad-verify/internal/api"
)

type contextKey struct{}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// UserFromContext returns the user stored by Middleware.
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(contextKey{}).(*User)
	return u, ok && u != nil
}

// Middleware rejects requests without a valid token. The token is read from
// "Authorization: Token <key>" or "Authorization: Bearer <key>". Browsers
// cannot set headers on WebSocket upgrades, so a "token" query parameter is
// accepted as well.
func Middleware(store *Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				api.Error(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
				return
			}
			u, err := store.UserForToken(r.Context(), token)
			if err != nil {
				if !errors.Is(err, ErrInvalidToken) {
					log.Printf("auth: %v", err)
				}
				api.Error(w, http.StatusUnauthorized, "Invalid token.")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header != "" {
		scheme, key, ok := strings.Cut(header, " ")
		if !ok {
			return ""
		}
		switch strings.ToLower(scheme) {
		case "token", "bearer":
			return strings.TrimSpace(key)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// RequireUser returns the authenticated user or writes a 401 and reports
// false.
func RequireUser(w http.ResponseWriter, r *http.Request) (*User, bool) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
	}
	return u, ok
}
