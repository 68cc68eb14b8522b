package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"shortlink/internal/counterstore"
	"shortlink/internal/domain/models"

	"github.com/rs/zerolog"
)

/*
Limiter - общий примитив подсчёта в фиксированном окне. Все политики
(IP, пользователь, регистрация, блокировки входа) собираются из него,
различаясь только префиксом ключа и парой порог/окно.

Фиксированное окно сознательно допускает всплеск до ~2x лимита на его
границе: взамен получаем O(1) памяти и один атомарный вызов хранилища
на проверку.
*/

type Policy struct {
	// Name попадает в логи и в ключ счётчика: "<name>:<dimension>".
	Name     string
	Limit    int64
	Window   time.Duration
	FailOpen bool
}

type Result struct {
	Allowed    bool
	Remaining  int64         // остаток бюджета окна
	RetryAfter time.Duration // через сколько окно откроется, при отказе
}

type Limiter struct {
	store  counterstore.Store
	policy Policy
	log    *zerolog.Logger
}

func NewLimiter(store counterstore.Store, policy Policy, log *zerolog.Logger) *Limiter {
	return &Limiter{
		store:  store,
		policy: policy,
		log:    log,
	}
}

func (l *Limiter) key(dimension string) string {
	return fmt.Sprintf("%s:%s", l.policy.Name, dimension)
}

// Allow выполняет check-and-increment для одного измерения.
// При недоступном хранилище поведение задаёт политика: fail-open
// пропускает с предупреждением в лог, fail-closed отвечает
// ErrStoreUnavailable - молчаливого умолчания здесь нет.
func (l *Limiter) Allow(ctx context.Context, dimension string) (Result, error) {
	count, remaining, err := l.store.IncrWithTTL(ctx, l.key(dimension), l.policy.Window)
	if err != nil {
		return l.degraded(err, dimension)
	}

	if count > l.policy.Limit {
		return Result{Allowed: false, RetryAfter: remaining}, nil
	}

	return Result{Allowed: true, Remaining: l.policy.Limit - count}, nil
}

// Peek читает счётчик без инкремента. Нужен блокировкам входа:
// сам факт попытки входа окно не продлевает, продлевает только неудача.
func (l *Limiter) Peek(ctx context.Context, dimension string) (Result, error) {
	raw, err := l.store.Get(ctx, l.key(dimension))
	if err != nil {
		if errors.Is(err, counterstore.ErrNotFound) {
			return Result{Allowed: true, Remaining: l.policy.Limit}, nil
		}
		return l.degraded(err, dimension)
	}

	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return Result{}, fmt.Errorf("malformed counter %q: %w", l.key(dimension), err)
	}

	if count >= l.policy.Limit {
		retryAfter := l.policy.Window
		if ttl, err := l.store.TTL(ctx, l.key(dimension)); err == nil && ttl > 0 {
			retryAfter = ttl
		}
		return Result{Allowed: false, RetryAfter: retryAfter}, nil
	}

	return Result{Allowed: true, Remaining: l.policy.Limit - count}, nil
}

// Record увеличивает счётчик, не вынося вердикта.
func (l *Limiter) Record(ctx context.Context, dimension string) error {
	if _, _, err := l.store.IncrWithTTL(ctx, l.key(dimension), l.policy.Window); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}

// Reset удаляет счётчик, закрывая окно досрочно.
func (l *Limiter) Reset(ctx context.Context, dimension string) error {
	if err := l.store.Del(ctx, l.key(dimension)); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}

func (l *Limiter) degraded(cause error, dimension string) (Result, error) {
	if l.policy.FailOpen {
		l.log.Warn().
			Err(cause).
			Str("policy", l.policy.Name).
			Str("dimension", dimension).
			Msg("counter store unavailable, failing open")
		return Result{Allowed: true, Remaining: -1}, nil
	}
	return Result{}, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, cause)
}
