package linkcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shortlink/internal/counterstore"
	"shortlink/internal/domain/models"

	"github.com/rs/zerolog"
)

const cacheKeyPrefix = "link:"

// LinkStorage - часть контракта долговременного хранилища,
// нужная кэшу на промахе.
type LinkStorage interface {
	LinkGetByShortCode(ctx context.Context, shortCode string) (models.Link, error)
}

/*
LinkCache - read-through кэш над долговременным хранилищем.

Кэш не источник истины: запись может исчезнуть в любой момент, промах
всегда уходит в базу. Недоступный Redis поэтому не роняет резолв, а
лишь замедляет его - корректность редиректа важнее доступности кэша.
*/
type LinkCache struct {
	storage     LinkStorage
	cache       counterstore.Store
	maxTTL      time.Duration // потолок жизни кэш-записи
	minCacheTTL time.Duration // короче этого остатка - не кэшируем
	log         *zerolog.Logger
	now         func() time.Time
}

func NewLinkCache(storage LinkStorage, cache counterstore.Store, maxTTL, minCacheTTL time.Duration, log *zerolog.Logger) *LinkCache {
	return &LinkCache{
		storage:     storage,
		cache:       cache,
		maxTTL:      maxTTL,
		minCacheTTL: minCacheTTL,
		log:         log,
		now:         time.Now,
	}
}

// Resolve возвращает ссылку по короткому коду: попадание в кэш отвечает
// без похода в базу, промах читает базу и, если запись того стоит,
// кладёт её в кэш. Недоступность базы на промахе - жёсткая ошибка:
// молча отвечать "не найдено" без источника истины нельзя.
func (c *LinkCache) Resolve(ctx context.Context, shortCode string) (models.Link, error) {
	if shortCode == "" {
		return models.Link{}, models.ErrInvalidData
	}

	longURL, err := c.cache.Get(ctx, cacheKeyPrefix+shortCode)
	if err == nil {
		return models.Link{ShortCode: shortCode, LongURL: longURL}, nil
	}
	if !errors.Is(err, counterstore.ErrNotFound) {
		c.log.Warn().Err(err).Str("short_code", shortCode).
			Msg("cache unavailable, falling back to durable store")
	}

	link, err := c.storage.LinkGetByShortCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, models.ErrUnfound) {
			return models.Link{}, fmt.Errorf("%w: short code unknown", models.ErrUnfound)
		}
		return models.Link{}, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}

	if link.Expired(c.now()) {
		// запись могла остаться от прежней жизни кода
		c.evict(ctx, shortCode)
		return models.Link{}, fmt.Errorf("%w: %s", models.ErrLinkExpired, shortCode)
	}

	c.Prime(ctx, link)
	return link, nil
}

// Prime кладёт ссылку в кэш с effective_ttl = min(остаток жизни, maxTTL).
// Записи короче minCacheTTL пропускаются: оборот кэша на них дороже,
// чем редкий поход в базу. Ошибки кэша здесь только логируются.
func (c *LinkCache) Prime(ctx context.Context, link models.Link) {
	ttl := c.effectiveTTL(link)
	if ttl < c.minCacheTTL {
		return
	}

	if err := c.cache.SetWithTTL(ctx, cacheKeyPrefix+link.ShortCode, link.LongURL, ttl); err != nil {
		c.log.Warn().Err(err).Str("short_code", link.ShortCode).Msg("failed to prime cache")
	}
}

// Invalidate выбрасывает запись из кэша. Вызывается до подтверждения
// мутации ссылки, чтобы читатели не видели устаревший URL дольше
// одного TTL.
func (c *LinkCache) Invalidate(ctx context.Context, shortCode string) error {
	if err := c.cache.Del(ctx, cacheKeyPrefix+shortCode); err != nil {
		return fmt.Errorf("failed to invalidate cache entry: %w", err)
	}
	return nil
}

func (c *LinkCache) effectiveTTL(link models.Link) time.Duration {
	if link.ExpireAt.IsZero() {
		return c.maxTTL
	}

	remaining := link.ExpireAt.Sub(c.now())
	if remaining > c.maxTTL {
		return c.maxTTL
	}
	return remaining
}

func (c *LinkCache) evict(ctx context.Context, shortCode string) {
	if err := c.cache.Del(ctx, cacheKeyPrefix+shortCode); err != nil {
		c.log.Warn().Err(err).Str("short_code", shortCode).Msg("failed to evict stale cache entry")
	}
}
