package httputils

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shortlink/internal/services/guard"
)

// MIME: https://developer.mozilla.org/en-US/docs/Web/HTTP/Guides/MIME_types/Common_types

const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderRetryAfter    = "Retry-After"
	HeaderUserAgent     = "User-Agent"
	HeaderReferer       = "Referer"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"

	MIMEApplicationJSON = "application/json"
	MIMETextPlain       = "text/plain"

	BearerPrefix = "Bearer "
)

func WriteJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set(HeaderContentType, MIMEApplicationJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: message})
}

func WriteJSONResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set(HeaderContentType, MIMEApplicationJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteRedirect отдает 307, чтобы клиенты не кэшировали переход:
// ссылка может истечь или быть перевыпущенной.
func WriteRedirect(w http.ResponseWriter, location string) {
	w.Header().Set("Location", location)
	w.WriteHeader(http.StatusTemporaryRedirect)
}

// WriteLimitError переводит ошибки лимитеров в 429/423 с Retry-After.
// Для прочих ошибок возвращает false, вызывающий разбирается сам.
func WriteLimitError(w http.ResponseWriter, err error) bool {
	var limitErr *guard.LimitExceededError
	if errors.As(err, &limitErr) {
		setRetryAfter(w, limitErr.RetryAfter)
		WriteJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return true
	}

	var lockErr *guard.LockedError
	if errors.As(err, &lockErr) {
		setRetryAfter(w, lockErr.RetryAfter)
		WriteJSONError(w, http.StatusLocked, "account temporarily locked")
		return true
	}

	return false
}

func setRetryAfter(w http.ResponseWriter, d time.Duration) {
	if d <= 0 {
		return
	}
	seconds := int64(d / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set(HeaderRetryAfter, strconv.FormatInt(seconds, 10))
}

// ClientIP достает адрес клиента: сначала заголовки обратного прокси,
// затем RemoteAddr. Вернувшийся адрес без порта.
func ClientIP(r *http.Request) string {
	if ip := r.Header.Get(HeaderXRealIP); ip != "" {
		return strings.TrimSpace(ip)
	}
	if fwd := r.Header.Get(HeaderXForwardedFor); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// BearerToken извлекает JWT из заголовка Authorization.
func BearerToken(r *http.Request) string {
	header := r.Header.Get(HeaderAuthorization)
	if !strings.HasPrefix(header, BearerPrefix) {
		return ""
	}
	return strings.TrimPrefix(header, BearerPrefix)
}
