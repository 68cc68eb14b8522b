package models

import (
	"errors"
	"time"
)

type (
	User struct {
		ID           int64
		Email        string // уникальный, ключ для входа
		PasswordHash string
		Status       UserStatus
		CreatedAt    time.Time
	}

	Link struct {
		ID         int64  // Уникальный идентификатор, монотонный
		OwnerID    int64  // Владелец ссылки
		ShortCode  string // Короткий код (aBcD12), уникален среди живых ссылок
		LongURL    string // Оригинальный URL в изначальном виде
		ClickCount int64  // только растёт, меняет его лишь агрегатор кликов
		CreatedAt  time.Time
		ExpireAt   time.Time // нулевое значение = бессрочная ссылка
	}

	// VisitLog - append-only запись об одном успешном переходе.
	VisitLog struct {
		ShortCode string
		LongURL   string
		IP        string
		UserAgent string
		Referer   string
		VisitTime time.Time
	}

	// DailyClicks - количество переходов за один день, для статистики.
	DailyClicks struct {
		Day    string
		Clicks int64
	}
)

type UserStatus int

const (
	UserStatusActive UserStatus = iota
	UserStatusDisabled
)

// Expired сообщает, пережила ли ссылка свой срок на момент now.
func (l Link) Expired(now time.Time) bool {
	return !l.ExpireAt.IsZero() && l.ExpireAt.Before(now)
}

var (
	ErrInvalidData      = errors.New("invalid input data")
	ErrUnfound          = errors.New("unfound data")
	ErrLinkExpired      = errors.New("link expired")
	ErrCodeTaken        = errors.New("short code already taken")
	ErrExhaustedRetries = errors.New("exhausted short code attempts")
	ErrConflict         = errors.New("duplicate data")
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrAccountLocked    = errors.New("account temporarily locked")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrWrongCredentials = errors.New("wrong email or password")
)
