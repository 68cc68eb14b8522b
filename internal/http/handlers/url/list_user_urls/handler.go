package list_user_urls

import (
	"context"
	"net/http"
	"time"

	"shortlink/internal/domain/models"
	"shortlink/internal/http/dto"
	"shortlink/internal/http/handlers/middlewares/auth"
	"shortlink/internal/http/httputils"
)

type ServiceShortlink interface {
	UserLinks(ctx context.Context, ownerID int64) ([]models.Link, error)
	ShortURL(shortCode string) string
}

func HandlerListUserURLs(svc ServiceShortlink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		user, ok := auth.UserFromContext(ctx)
		if !ok {
			httputils.WriteJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		links, err := svc.UserLinks(ctx, user.ID)
		if err != nil {
			httputils.WriteJSONError(w, http.StatusInternalServerError, "failed to get user links")
			return
		}

		if len(links) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		httputils.WriteJSONResponse(w, http.StatusOK, dto.UserLinksResponseFromDomain(links, svc.ShortURL))
	}
}
