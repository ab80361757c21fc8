package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/fmarques/imago/internal/contextkeys"
	"github.com/fmarques/imago/internal/db"
	"github.com/fmarques/imago/internal/token"
)

// RequireAuth guards an endpoint with bearer-token authentication. The full
// user row is loaded into the request context so handlers never hit the users
// table themselves.
func RequireAuth(tm *token.Manager, queries *db.Queries, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			unauthorized(w, "missing bearer token")
			return
		}

		username, err := tm.Verify(tokenString)
		if err != nil {
			unauthorized(w, "invalid or expired token")
			return
		}

		user, err := queries.GetUserByUsername(r.Context(), username)
		if err != nil {
			unauthorized(w, "unknown user")
			return
		}
		if !user.IsActive {
			unauthorized(w, "user account is disabled")
			return
		}

		ctx := context.WithValue(r.Context(), contextkeys.UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"detail":"` + detail + `"}`))
}

// GetUser retrieves the authenticated user from the request context.
func GetUser(ctx context.Context) (db.User, bool) {
	user, ok := ctx.Value(contextkeys.UserContextKey).(db.User)
	return user, ok
}
