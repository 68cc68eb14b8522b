package register

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
	Register(ctx context.Context, email, password, ip string) (models.User, error)
}

func HandlerRegister(authSvc ServiceAuthentication) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req dto.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputils.WriteJSONError(w, http.StatusBadRequest, "malformed request body")
			return
		}
		if req.Email == "" || req.Password == "" {
			httputils.WriteJSONError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		user, err := authSvc.Register(ctx, req.Email, req.Password, httputils.ClientIP(r))
		if err != nil {
			if httputils.WriteLimitError(w, err) {
				return
			}
			switch {
			case errors.Is(err, models.ErrConflict):
				httputils.WriteJSONError(w, http.StatusConflict, "email already registered")
			case errors.Is(err, models.ErrInvalidData):
				httputils.WriteJSONError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, models.ErrStoreUnavailable):
				httputils.WriteJSONError(w, http.StatusServiceUnavailable, "service unavailable")
			default:
				httputils.WriteJSONError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		httputils.WriteJSONResponse(w, http.StatusCreated, dto.RegisterResponse{
			UserID: user.ID,
			Email:  user.Email,
		})
	}
}
