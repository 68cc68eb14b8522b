package create_json

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"shortlink/internal/domain/models"
	"shortlink/internal/http/dto"
	"shortlink/internal/http/handlers/middlewares/auth"
	"shortlink/internal/http/httputils"
)

type ServiceShortlink interface {
	CreateLink(ctx context.Context, ownerID int64, longURL, customCode string, ttl time.Duration) (models.Link, error)
	ShortURL(shortCode string) string
}

func HandlerCreateJSON(svc ServiceShortlink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		user, ok := auth.UserFromContext(ctx)
		if !ok {
			httputils.WriteJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		var req dto.LinkCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputils.WriteJSONError(w, http.StatusBadRequest, "malformed request body")
			return
		}
		if req.URL == "" {
			httputils.WriteJSONError(w, http.StatusBadRequest, "url is required")
			return
		}

		link, err := svc.CreateLink(ctx, user.ID, req.URL, req.CustomCode, req.TTL())
		if err != nil {
			switch {
			case errors.Is(err, models.ErrCodeTaken):
				httputils.WriteJSONError(w, http.StatusConflict, "short code already taken")
			case errors.Is(err, models.ErrInvalidData):
				httputils.WriteJSONError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, models.ErrExhaustedRetries):
				httputils.WriteJSONError(w, http.StatusServiceUnavailable, "could not allocate short code")
			default:
				httputils.WriteJSONError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		resp := dto.LinkCreateResponseFromDomain(link, svc.ShortURL(link.ShortCode))
		httputils.WriteJSONResponse(w, http.StatusCreated, resp)
	}
}
