package auth

import (
	"context"
	"net/http"

	"shortlink/internal/domain/models"
	"shortlink/internal/http/httputils"
)

type Authentication interface {
	ValidateAndGetUser(ctx context.Context, jwtToken string) (models.User, error)
}

type contextKey struct{}

var userKey contextKey

// UserFromContext возвращает пользователя, положенного MiddlewareAuth.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey).(models.User)
	return user, ok
}

// MiddlewareAuth требует валидный Bearer-токен. Без токена или с
// протухшим токеном запрос дальше не проходит.
func MiddlewareAuth(authSvc Authentication) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := httputils.BearerToken(r)
			if token == "" {
				httputils.WriteJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			user, err := authSvc.ValidateAndGetUser(ctx, token)
			if err != nil {
				httputils.WriteJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
