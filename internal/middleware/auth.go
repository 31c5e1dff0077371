package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/HammerMeetNail/playit/internal/handlers"
	"github.com/HammerMeetNail/playit/internal/models"
	"github.com/HammerMeetNail/playit/internal/services"
)

// TokenParser verifies bearer access tokens.
type TokenParser interface {
	ParseAccessToken(raw string) (*services.Claims, error)
}

type authErrorKey struct{}

type AuthMiddleware struct {
	tokens TokenParser
}

func NewAuthMiddleware(tokens TokenParser) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// Authenticate puts the caller described by a valid bearer token into the
// request context. It never rejects; RequireRole does.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.tokens.ParseAccessToken(raw)
		if err == nil {
			var user *models.User
			user, err = services.UserFromClaims(claims)
			if err == nil {
				recordUser(r.Context(), user.ID.String())
				ctx := handlers.SetUserInContext(r.Context(), user)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}

		ctx := context.WithValue(r.Context(), authErrorKey{}, err)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects requests without an authenticated caller (401) or
// whose role is not listed (403).
func (m *AuthMiddleware) RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := handlers.GetUserFromContext(r.Context())
			if user == nil {
				handlers.WriteError(w, http.StatusUnauthorized, unauthenticatedMessage(r.Context()))
				return
			}

			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			handlers.WriteError(w, http.StatusForbidden, "Insufficient role")
		})
	}
}

func unauthenticatedMessage(ctx context.Context) string {
	err, _ := ctx.Value(authErrorKey{}).(error)
	switch {
	case err == nil:
		return "Authentication required"
	case errors.Is(err, services.ErrTokenExpired):
		return "Token expired"
	default:
		return "Token invalid"
	}
}
