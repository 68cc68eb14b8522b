package throttle

import (
	"context"
	"net/http"

	"shortlink/internal/http/handlers/middlewares/auth"
	"shortlink/internal/http/httputils"
)

type RequestGuard interface {
	AllowRequest(ctx context.Context, ip string) error
	AllowUser(ctx context.Context, userID int64) error
}

// MiddlewareThrottleIP списывает запрос из бюджета IP-адреса до того,
// как запрос дойдет до обработчика.
func MiddlewareThrottleIP(g RequestGuard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := g.AllowRequest(r.Context(), httputils.ClientIP(r)); err != nil {
				if httputils.WriteLimitError(w, err) {
					return
				}
				httputils.WriteJSONError(w, http.StatusServiceUnavailable, "service unavailable")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MiddlewareThrottleUser списывает запрос из бюджета пользователя.
// Ставится после MiddlewareAuth, иначе пользователя в контексте нет.
func MiddlewareThrottleUser(g RequestGuard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok {
				httputils.WriteJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if err := g.AllowUser(r.Context(), user.ID); err != nil {
				if httputils.WriteLimitError(w, err) {
					return
				}
				httputils.WriteJSONError(w, http.StatusServiceUnavailable, "service unavailable")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
