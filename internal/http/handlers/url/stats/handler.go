package stats

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"shortlink/internal/domain/models"
	"shortlink/internal/http/dto"
	"shortlink/internal/http/handlers/middlewares/auth"
	"shortlink/internal/http/httputils"
)

type ServiceShortlink interface {
	Stats(ctx context.Context, ownerID int64, shortCode string, days int) ([]models.DailyClicks, error)
}

// HandlerStats - GET /api/user/urls/{code}/stats?days=N.
// Статистика видна только владельцу: чужой код отдает пустой срез.
func HandlerStats(svc ServiceShortlink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		user, ok := auth.UserFromContext(ctx)
		if !ok {
			httputils.WriteJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		code := mux.Vars(r)["code"]

		days := 0
		if raw := r.URL.Query().Get("days"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				httputils.WriteJSONError(w, http.StatusBadRequest, "days must be an integer")
				return
			}
			days = parsed
		}

		daily, err := svc.Stats(ctx, user.ID, code, days)
		if err != nil {
			if errors.Is(err, models.ErrInvalidData) {
				httputils.WriteJSONError(w, http.StatusBadRequest, err.Error())
				return
			}
			httputils.WriteJSONError(w, http.StatusInternalServerError, "failed to get stats")
			return
		}

		httputils.WriteJSONResponse(w, http.StatusOK, dto.DailyClicksResponseFromDomain(daily))
	}
}
