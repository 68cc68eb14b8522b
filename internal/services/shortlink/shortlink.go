package shortlink

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"shortlink/internal/domain/models"
)

// LinkStorage - контракт долговременного хранилища ссылок.
//
//go:generate mockgen -source=shortlink.go -destination=../../mocks/mock_shortlink_deps.go -package=mocks
type LinkStorage interface {
	LinkCreate(ctx context.Context, link models.Link) (models.Link, error)
	LinkGetByShortCode(ctx context.Context, shortCode string) (models.Link, error)
	LinkGetBatchByUser(ctx context.Context, ownerID int64) ([]models.Link, error)
	LinkDeleteBatchByUser(ctx context.Context, ownerID int64, shortCodes []string) ([]string, error)
	VisitCountDaily(ctx context.Context, shortCode string, ownerID int64, days int) ([]models.DailyClicks, error)
	Ping(ctx context.Context) error
}

type Cache interface {
	Resolve(ctx context.Context, shortCode string) (models.Link, error)
	Prime(ctx context.Context, link models.Link)
	Invalidate(ctx context.Context, shortCode string) error
}

type CodeAllocator interface {
	Allocate(ctx context.Context, link models.Link, customCode string) (models.Link, error)
}

type ClickRecorder interface {
	Record(visit models.VisitLog)
}

// Service связывает аллокатор, кэш и агрегатор кликов в операции
// создания и резолва ссылок.
type Service struct {
	storage      LinkStorage
	cache        Cache
	allocator    CodeAllocator
	clicks       ClickRecorder
	baseURL      string
	minTTL       time.Duration
	maxTTL       time.Duration
	maxStatsDays int
	now          func() time.Time
}

func NewService(
	storage LinkStorage,
	cache Cache,
	codeAlloc CodeAllocator,
	clicks ClickRecorder,
	baseURL string,
	minTTL, maxTTL time.Duration,
	maxStatsDays int,
) *Service {
	return &Service{
		storage:      storage,
		cache:        cache,
		allocator:    codeAlloc,
		clicks:       clicks,
		baseURL:      baseURL,
		minTTL:       minTTL,
		maxTTL:       maxTTL,
		maxStatsDays: maxStatsDays,
		now:          time.Now,
	}
}

// CreateLink проверяет URL, зажимает срок жизни в настроенные границы,
// выделяет код и прогревает кэш до подтверждения успеха: холодный
// резолв сразу после создания обязан отдать свежий URL.
func (s *Service) CreateLink(ctx context.Context, ownerID int64, longURL, customCode string, ttl time.Duration) (models.Link, error) {
	if ownerID <= 0 {
		return models.Link{}, fmt.Errorf("%w: invalid owner id", models.ErrInvalidData)
	}
	if !validLongURL(longURL) {
		return models.Link{}, fmt.Errorf("%w: malformed URL", models.ErrInvalidData)
	}
	if ttl < 0 {
		return models.Link{}, fmt.Errorf("%w: negative ttl", models.ErrInvalidData)
	}

	now := s.now().UTC()
	link := models.Link{
		OwnerID:   ownerID,
		LongURL:   longURL,
		CreatedAt: now,
	}

	// ttl == 0 означает бессрочную ссылку
	if ttl > 0 {
		link.ExpireAt = now.Add(s.clampTTL(ttl))
	}

	created, err := s.allocator.Allocate(ctx, link, customCode)
	if err != nil {
		return models.Link{}, err
	}

	s.cache.Prime(ctx, created)
	return created, nil
}

// Resolve отдаёт ссылку по коду и асинхронно учитывает переход.
// Учёт клика не задерживает и не ломает ответ.
func (s *Service) Resolve(ctx context.Context, shortCode string, visit models.VisitLog) (models.Link, error) {
	link, err := s.cache.Resolve(ctx, shortCode)
	if err != nil {
		return models.Link{}, err
	}

	visit.ShortCode = link.ShortCode
	visit.LongURL = link.LongURL
	if visit.VisitTime.IsZero() {
		visit.VisitTime = s.now().UTC()
	}
	s.clicks.Record(visit)

	return link, nil
}

func (s *Service) UserLinks(ctx context.Context, ownerID int64) ([]models.Link, error) {
	if ownerID <= 0 {
		return nil, fmt.Errorf("%w: invalid owner id", models.ErrInvalidData)
	}

	links, err := s.storage.LinkGetBatchByUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user links: %w", err)
	}
	return links, nil
}

// DeleteLinks удаляет ссылки владельца и выбрасывает их из кэша.
// Чужие и несуществующие коды пропускаются молча, вернётся только
// реально удалённое. Ошибка инвалидации - ошибка всей операции:
// оставить в кэше URL удалённой ссылки на целый TTL нельзя.
func (s *Service) DeleteLinks(ctx context.Context, ownerID int64, shortCodes []string) ([]string, error) {
	if ownerID <= 0 {
		return nil, fmt.Errorf("%w: invalid owner id", models.ErrInvalidData)
	}
	if len(shortCodes) == 0 {
		return nil, fmt.Errorf("%w: empty code list", models.ErrInvalidData)
	}

	deleted, err := s.storage.LinkDeleteBatchByUser(ctx, ownerID, shortCodes)
	if err != nil {
		return nil, fmt.Errorf("failed to delete links: %w", err)
	}

	for _, code := range deleted {
		if err := s.cache.Invalidate(ctx, code); err != nil {
			return deleted, fmt.Errorf("link %s deleted but not evicted from cache: %w", code, err)
		}
	}

	return deleted, nil
}

// Stats отдаёт клики по дням, days ограничен настройкой сверху.
func (s *Service) Stats(ctx context.Context, ownerID int64, shortCode string, days int) ([]models.DailyClicks, error) {
	if days <= 0 {
		days = s.maxStatsDays
	}
	if days > s.maxStatsDays {
		return nil, fmt.Errorf("%w: days exceeds maximum %d", models.ErrInvalidData, s.maxStatsDays)
	}

	stats, err := s.storage.VisitCountDaily(ctx, shortCode, ownerID, days)
	if err != nil {
		return nil, fmt.Errorf("failed to get link stats: %w", err)
	}
	return stats, nil
}

// ShortURL возвращает полный короткий URL.
func (s *Service) ShortURL(shortCode string) string {
	return fmt.Sprintf("%s/%s", s.baseURL, shortCode)
}

// PingDataBase проверяет соединение с хранилищем.
func (s *Service) PingDataBase(ctx context.Context) error {
	if err := s.storage.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

func (s *Service) clampTTL(ttl time.Duration) time.Duration {
	if ttl < s.minTTL {
		return s.minTTL
	}
	if ttl > s.maxTTL {
		return s.maxTTL
	}
	return ttl
}

func validLongURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsGone объединяет "не найдено" и "истекла": наружу они неразличимы,
// чтобы не раскрывать, какие коды когда-то существовали.
func IsGone(err error) bool {
	return errors.Is(err, models.ErrUnfound) || errors.Is(err, models.ErrLinkExpired)
}
