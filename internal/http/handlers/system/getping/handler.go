package getping

import (
	"context"
	"net/http"
	"time"

	"shortlink/internal/http/httputils"
)

type ServiceShortlink interface {
	PingDataBase(ctx context.Context) error
}

func HandlerPing(svc ServiceShortlink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := svc.PingDataBase(ctx); err != nil {
			httputils.WriteJSONError(w, http.StatusInternalServerError, "database unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
