package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/cloo-solutions/admitbot/internal/api"
	"github.com/cloo-solutions/admitbot/internal/domain"
)

type contextKey string

const PrincipalKey contextKey = "principal"

// TokenValidator resolves a bearer token to the principal it belongs to.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (string, error)
}

// StaticToken accepts exactly one shared admin token.
type StaticToken string

func (t StaticToken) ValidateToken(_ context.Context, token string) (string, error) {
	if t == "" || subtle.ConstantTimeCompare([]byte(t), []byte(token)) != 1 {
		return "", domain.ErrInvalidAdminToken
	}
	return "admin", nil
}

// BearerAuth rejects requests without a valid bearer token.
func BearerAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				api.Error(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")

			principal, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				api.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetPrincipal(ctx context.Context) string {
	principal, _ := ctx.Value(PrincipalKey).(string)
	return principal
}
