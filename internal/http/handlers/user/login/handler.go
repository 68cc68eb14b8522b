package login

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"shortlink/internal/domain/models"
	"shortlink/internal/http/dto"
	"shortlink/internal/http/httputils"
)

type ServiceAuthentication interface {
	Login(ctx context.Context, email, password, ip string) (models.User, string, error)
}

// HandlerLogin - POST /api/user/login. Неверный пароль и неизвестный
// email дают один и тот же 401, блокировка аккаунта отличима: 423 с
// Retry-After.
func HandlerLogin(authSvc ServiceAuthentication) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req dto.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputils.WriteJSONError(w, http.StatusBadRequest, "malformed request body")
			return
		}
		if req.Email == "" || req.Password == "" {
			httputils.WriteJSONError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		_, token, err := authSvc.Login(ctx, req.Email, req.Password, httputils.ClientIP(r))
		if err != nil {
			if httputils.WriteLimitError(w, err) {
				return
			}
			switch {
			case errors.Is(err, models.ErrWrongCredentials):
				httputils.WriteJSONError(w, http.StatusUnauthorized, "wrong email or password")
			case errors.Is(err, models.ErrStoreUnavailable):
				httputils.WriteJSONError(w, http.StatusServiceUnavailable, "service unavailable")
			default:
				httputils.WriteJSONError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		httputils.WriteJSONResponse(w, http.StatusOK, dto.LoginResponse{
			AccessToken: token,
			TokenType:   "Bearer",
		})
	}
}
