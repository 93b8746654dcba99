package server

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/jrsteele09/go-lms-client/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyUser stores the authenticated users.User
const ContextKeyUser ContextKey = "user"

// RequireAuth is middleware that validates a Bearer access token and injects
// the caller's user into the request context.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user, status, msg := s.authenticate(r)
			if status != http.StatusOK {
				writeError(w, status, msg)
				return
			}
			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireRole must be chained after RequireAuth.
func (s *Server) RequireRole(roles ...users.RoleType) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user, ok := userFrom(r.Context())
			if !ok || !slices.Contains(roles, user.Role) {
				writeError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next(w, r)
		}
	}
}

// authenticate checks the bearer token on r. It returns http.StatusOK and the
// user, or the status and message to reject the request with.
func (s *Server) authenticate(r *http.Request) (users.User, int, string) {
	raw, ok := bearerToken(r)
	if !ok {
		return users.User{}, http.StatusUnauthorized, "Token is required"
	}
	claims, err := s.issuer.Parse(raw, tokenTypeAccess)
	if err != nil {
		return users.User{}, http.StatusUnauthorized, "Token is invalid or expired"
	}
	if claims.Generation < s.generation.Load() {
		return users.User{}, http.StatusUnauthorized, "Token is invalid or expired"
	}
	user, ok := s.lookupUser(claims.UserID)
	if !ok {
		return users.User{}, http.StatusUnauthorized, "user not found"
	}
	return user, http.StatusOK, ""
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func userFrom(ctx context.Context) (users.User, bool) {
	user, ok := ctx.Value(ContextKeyUser).(users.User)
	return user, ok
}
