package redirect

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"shortlink/internal/domain/models"
	"shortlink/internal/http/httputils"
	"shortlink/internal/services/shortlink"
)

type ServiceShortlink interface {
	Resolve(ctx context.Context, shortCode string, visit models.VisitLog) (models.Link, error)
}

// HandlerRedirect - GET /{code}. Несуществующий и истекший код
// отвечают одинаковым 404, разница наружу не отдается.
func HandlerRedirect(svc ServiceShortlink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		code := mux.Vars(r)["code"]

		visit := models.VisitLog{
			IP:        httputils.ClientIP(r),
			UserAgent: r.Header.Get(httputils.HeaderUserAgent),
			Referer:   r.Header.Get(httputils.HeaderReferer),
		}

		link, err := svc.Resolve(ctx, code, visit)
		if err != nil {
			if shortlink.IsGone(err) {
				httputils.WriteJSONError(w, http.StatusNotFound, "not found")
				return
			}
			if errors.Is(err, models.ErrStoreUnavailable) {
				httputils.WriteJSONError(w, http.StatusServiceUnavailable, "service unavailable")
				return
			}
			httputils.WriteJSONError(w, http.StatusInternalServerError, "internal error")
			return
		}

		httputils.WriteRedirect(w, link.LongURL)
	}
}
