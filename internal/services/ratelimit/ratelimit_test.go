package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shortlink/internal/counterstore"
	"shortlink/internal/domain/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = zerolog.Nop()

type brokenStore struct{}

func (brokenStore) Get(ctx context.Context, key string) (string, error) {
	return "", errors.New("connection refused")
}

func (brokenStore) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	return errors.New("connection refused")
}

func (brokenStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("connection refused")
}

func (brokenStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	return 0, errors.New("connection refused")
}

func (brokenStore) Del(ctx context.Context, key string) error {
	return errors.New("connection refused")
}

func (brokenStore) Ping(ctx context.Context) error {
	return errors.New("connection refused")
}

func TestLimiter_Allow(t *testing.T) {
	ctx := context.Background()

	t.Run("Лимит исчерпывается последовательно", func(t *testing.T) {
		store := counterstore.NewMemoryStore()
		limiter := NewLimiter(store, Policy{Name: "test", Limit: 3, Window: time.Minute}, &testLogger)

		for i := 0; i < 3; i++ {
			res, err := limiter.Allow(ctx, "10.0.0.1")
			require.NoError(t, err)
			assert.True(t, res.Allowed)
			assert.Equal(t, int64(2-i), res.Remaining)
		}

		res, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Greater(t, res.RetryAfter, time.Duration(0))
	})

	t.Run("Разные измерения не делят бюджет", func(t *testing.T) {
		store := counterstore.NewMemoryStore()
		limiter := NewLimiter(store, Policy{Name: "test", Limit: 1, Window: time.Minute}, &testLogger)

		res, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)

		res, err = limiter.Allow(ctx, "10.0.0.2")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})
}

// Закон атомарности: C конкурентных вызовов при лимите L дают ровно L
// разрешений независимо от порядка исполнения.
func TestLimiter_Allow_Concurrent(t *testing.T) {
	const (
		limit   = 5
		callers = 20
	)

	store := counterstore.NewMemoryStore()
	limiter := NewLimiter(store, Policy{Name: "rate_limit:ip", Limit: limit, Window: time.Minute}, &testLogger)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
		denied  int
	)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := limiter.Allow(context.Background(), "192.168.0.7")
			assert.NoError(t, err)

			mu.Lock()
			defer mu.Unlock()
			if res.Allowed {
				allowed++
			} else {
				denied++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, allowed)
	assert.Equal(t, callers-limit, denied)
}

func TestLimiter_FailurePolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("Fail-open пропускает при недоступном хранилище", func(t *testing.T) {
		limiter := NewLimiter(brokenStore{}, Policy{Name: "test", Limit: 1, Window: time.Minute, FailOpen: true}, &testLogger)

		res, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("Fail-closed отвечает ErrStoreUnavailable", func(t *testing.T) {
		limiter := NewLimiter(brokenStore{}, Policy{Name: "test", Limit: 1, Window: time.Minute, FailOpen: false}, &testLogger)

		_, err := limiter.Allow(ctx, "10.0.0.1")
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrStoreUnavailable)
	})
}

func TestLimiter_PeekRecordReset(t *testing.T) {
	ctx := context.Background()
	store := counterstore.NewMemoryStore()
	limiter := NewLimiter(store, Policy{Name: "login_fail:uid", Limit: 2, Window: time.Minute}, &testLogger)

	// Peek не тратит бюджет
	res, err := limiter.Peek(ctx, "42")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(2), res.Remaining)

	require.NoError(t, limiter.Record(ctx, "42"))
	require.NoError(t, limiter.Record(ctx, "42"))

	res, err = limiter.Peek(ctx, "42")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Greater(t, res.RetryAfter, time.Duration(0))

	require.NoError(t, limiter.Reset(ctx, "42"))

	res, err = limiter.Peek(ctx, "42")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
