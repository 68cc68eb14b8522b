package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"shortlink/internal/counterstore"
	"shortlink/internal/domain/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = zerolog.Nop()

func newTestGuard(store counterstore.Store) *Guard {
	return NewGuard(store, Config{
		IPRequests:   PolicyConfig{Limit: 5, Window: time.Minute, FailOpen: true},
		UserRequests: PolicyConfig{Limit: 10, Window: time.Minute, FailOpen: true},
		Registration: PolicyConfig{Limit: 2, Window: 24 * time.Hour},
		LoginFail:    PolicyConfig{Limit: 5, Window: 15 * time.Minute},
		IPLoginFail:  PolicyConfig{Limit: 3, Window: 2 * time.Minute},
	}, &testLogger)
}

func TestGuard_AllowRequest(t *testing.T) {
	ctx := context.Background()
	g := newTestGuard(counterstore.NewMemoryStore())

	for i := 0; i < 5; i++ {
		require.NoError(t, g.AllowRequest(ctx, "10.0.0.1"))
	}

	err := g.AllowRequest(ctx, "10.0.0.1")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrRateLimited)

	var limitErr *LimitExceededError
	require.True(t, errors.As(err, &limitErr))
	assert.Greater(t, limitErr.RetryAfter, time.Duration(0))

	// другой IP под лимит не попадает
	assert.NoError(t, g.AllowRequest(ctx, "10.0.0.2"))
}

func TestGuard_UserBudgetIndependentFromIP(t *testing.T) {
	ctx := context.Background()
	g := newTestGuard(counterstore.NewMemoryStore())

	// исчерпываем IP-бюджет
	for i := 0; i < 5; i++ {
		require.NoError(t, g.AllowRequest(ctx, "10.0.0.1"))
	}
	require.Error(t, g.AllowRequest(ctx, "10.0.0.1"))

	// бюджет пользователя от этого не страдает
	assert.NoError(t, g.AllowUser(ctx, 42))
}

func TestGuard_Registration(t *testing.T) {
	ctx := context.Background()
	g := newTestGuard(counterstore.NewMemoryStore())

	require.NoError(t, g.CanRegister(ctx, "10.0.0.1"))
	require.NoError(t, g.RecordRegistration(ctx, "10.0.0.1"))
	require.NoError(t, g.CanRegister(ctx, "10.0.0.1"))
	require.NoError(t, g.RecordRegistration(ctx, "10.0.0.1"))

	err := g.CanRegister(ctx, "10.0.0.1")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrRateLimited)
}

func TestGuard_LoginLockout(t *testing.T) {
	ctx := context.Background()

	t.Run("Пять неудач блокируют аккаунт, шестая попытка отбивается", func(t *testing.T) {
		g := newTestGuard(counterstore.NewMemoryStore())
		const userID = int64(7)

		// неудачи с разных адресов, составная блокировка не успевает
		ips := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4", "10.0.0.5"}
		for _, ip := range ips {
			require.NoError(t, g.CanLogin(ctx, userID, ip))
			require.NoError(t, g.RecordLoginFailure(ctx, userID, ip))
		}

		err := g.CanLogin(ctx, userID, "10.0.0.6")
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrAccountLocked)

		var locked *LockedError
		require.True(t, errors.As(err, &locked))
		assert.Greater(t, locked.RetryAfter, time.Duration(0))
	})

	t.Run("Составная блокировка IP+аккаунт срабатывает раньше", func(t *testing.T) {
		g := newTestGuard(counterstore.NewMemoryStore())
		const (
			userID = int64(7)
			ip     = "10.0.0.1"
		)

		// три неудачи с одного адреса: порог по аккаунту (5) ещё не
		// выбран, составной (3) уже да
		for i := 0; i < 3; i++ {
			require.NoError(t, g.CanLogin(ctx, userID, ip))
			require.NoError(t, g.RecordLoginFailure(ctx, userID, ip))
		}

		err := g.CanLogin(ctx, userID, ip)
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrAccountLocked)

		// с другого адреса аккаунт ещё доступен
		assert.NoError(t, g.CanLogin(ctx, userID, "10.0.0.99"))
	})

	t.Run("Успешный вход сбрасывает счётчики", func(t *testing.T) {
		g := newTestGuard(counterstore.NewMemoryStore())
		const (
			userID = int64(7)
			ip     = "10.0.0.1"
		)

		for i := 0; i < 2; i++ {
			require.NoError(t, g.RecordLoginFailure(ctx, userID, ip))
		}
		require.NoError(t, g.ResetLoginFailures(ctx, userID, ip))

		// после сброса снова доступен полный запас неудач
		for i := 0; i < 2; i++ {
			require.NoError(t, g.CanLogin(ctx, userID, ip))
			require.NoError(t, g.RecordLoginFailure(ctx, userID, ip))
		}
		assert.NoError(t, g.CanLogin(ctx, userID, ip))
	})
}
