package delete_batch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"shortlink/internal/domain/models"
	"shortlink/internal/http/dto"
	"shortlink/internal/http/handlers/middlewares/auth"
	"shortlink/internal/http/httputils"
)

type ServiceShortlink interface {
	DeleteLinks(ctx context.Context, ownerID int64, shortCodes []string) ([]string, error)
}

// HandlerDeleteBatch - DELETE /api/user/urls, тело - JSON-массив кодов.
// Удаляются только ссылки владельца токена, чужие коды молча
// пропускаются и в ответ не попадают.
func HandlerDeleteBatch(svc ServiceShortlink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		user, ok := auth.UserFromContext(ctx)
		if !ok {
			httputils.WriteJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		var shortCodes []string
		if err := json.NewDecoder(r.Body).Decode(&shortCodes); err != nil {
			httputils.WriteJSONError(w, http.StatusBadRequest, "malformed request body")
			return
		}
		if len(shortCodes) == 0 {
			httputils.WriteJSONError(w, http.StatusBadRequest, "empty code list")
			return
		}

		deleted, err := svc.DeleteLinks(ctx, user.ID, shortCodes)
		if err != nil {
			if errors.Is(err, models.ErrInvalidData) {
				httputils.WriteJSONError(w, http.StatusBadRequest, err.Error())
				return
			}
			httputils.WriteJSONError(w, http.StatusInternalServerError, "failed to delete links")
			return
		}

		httputils.WriteJSONResponse(w, http.StatusOK, dto.LinkDeleteResponse{Deleted: deleted})
	}
}
