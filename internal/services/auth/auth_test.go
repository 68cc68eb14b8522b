package auth

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"shortlink/internal/counterstore"
	"shortlink/internal/domain/models"
	"shortlink/internal/repository/inmemory"
	"shortlink/internal/services/guard"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = zerolog.Nop()

const testPassword = "correct-horse-battery"

func newTestAuth(t *testing.T) (*Authentication, *inmemory.InmemoryStorage) {
	t.Helper()

	secretKey := base64.StdEncoding.EncodeToString([]byte("test-secret-key-32-bytes-long!!!"))
	storage := inmemory.NewStorage()
	g := guard.NewGuard(counterstore.NewMemoryStore(), guard.Config{
		IPRequests:   guard.PolicyConfig{Limit: 100, Window: time.Minute, FailOpen: true},
		UserRequests: guard.PolicyConfig{Limit: 100, Window: time.Minute, FailOpen: true},
		Registration: guard.PolicyConfig{Limit: 2, Window: 24 * time.Hour},
		LoginFail:    guard.PolicyConfig{Limit: 5, Window: 15 * time.Minute},
		IPLoginFail:  guard.PolicyConfig{Limit: 3, Window: 2 * time.Minute},
	}, &testLogger)

	a, err := NewAuthentication(storage, g, secretKey, 15*time.Minute)
	require.NoError(t, err)
	return a, storage
}

func TestNewAuthentication(t *testing.T) {
	t.Run("Короткий секрет отклоняется", func(t *testing.T) {
		_, err := NewAuthentication(inmemory.NewStorage(), nil, base64.StdEncoding.EncodeToString([]byte("short")), time.Minute)
		require.Error(t, err)
	})
}

func TestAuth_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("Успешная регистрация", func(t *testing.T) {
		a, _ := newTestAuth(t)

		user, err := a.Register(ctx, "User@Example.com", testPassword, "10.0.0.1")
		require.NoError(t, err)
		assert.NotZero(t, user.ID)
		assert.Equal(t, "user@example.com", user.Email) // email нормализуется
		assert.NotEqual(t, testPassword, user.PasswordHash)
	})

	t.Run("Повторный email отвечает конфликтом", func(t *testing.T) {
		a, _ := newTestAuth(t)

		_, err := a.Register(ctx, "user@example.com", testPassword, "10.0.0.1")
		require.NoError(t, err)

		_, err = a.Register(ctx, "user@example.com", testPassword, "10.0.0.2")
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("Квота регистраций на IP", func(t *testing.T) {
		a, _ := newTestAuth(t)

		_, err := a.Register(ctx, "one@example.com", testPassword, "10.0.0.1")
		require.NoError(t, err)
		_, err = a.Register(ctx, "two@example.com", testPassword, "10.0.0.1")
		require.NoError(t, err)

		_, err = a.Register(ctx, "three@example.com", testPassword, "10.0.0.1")
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrRateLimited)

		// другой IP регистрируется свободно
		_, err = a.Register(ctx, "four@example.com", testPassword, "10.0.0.9")
		assert.NoError(t, err)
	})
}

func TestAuth_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("Успешный вход выдаёт валидный токен", func(t *testing.T) {
		a, _ := newTestAuth(t)
		registered, err := a.Register(ctx, "user@example.com", testPassword, "10.0.0.1")
		require.NoError(t, err)

		user, token, err := a.Login(ctx, "user@example.com", testPassword, "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
		require.NotEmpty(t, token)

		got, err := a.ValidateAndGetUser(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, registered.ID, got.ID)
	})

	t.Run("Неверный пароль и неизвестный email неразличимы", func(t *testing.T) {
		a, _ := newTestAuth(t)
		_, err := a.Register(ctx, "user@example.com", testPassword, "10.0.0.1")
		require.NoError(t, err)

		_, _, err = a.Login(ctx, "user@example.com", "wrong-password", "10.0.0.1")
		assert.ErrorIs(t, err, models.ErrWrongCredentials)

		_, _, err = a.Login(ctx, "ghost@example.com", testPassword, "10.0.0.1")
		assert.ErrorIs(t, err, models.ErrWrongCredentials)
	})

	t.Run("Серия неудач блокирует, успех до порога сбрасывает счётчик", func(t *testing.T) {
		a, _ := newTestAuth(t)
		_, err := a.Register(ctx, "user@example.com", testPassword, "10.0.0.1")
		require.NoError(t, err)

		// две неудачи, затем успех - счётчики обнуляются
		for i := 0; i < 2; i++ {
			_, _, err = a.Login(ctx, "user@example.com", "wrong", "10.0.0.1")
			assert.ErrorIs(t, err, models.ErrWrongCredentials)
		}
		_, _, err = a.Login(ctx, "user@example.com", testPassword, "10.0.0.1")
		require.NoError(t, err)

		// после сброса до составного порога снова три попытки
		for i := 0; i < 3; i++ {
			_, _, err = a.Login(ctx, "user@example.com", "wrong", "10.0.0.1")
			assert.ErrorIs(t, err, models.ErrWrongCredentials)
		}

		// четвёртая попытка отбивается блокировкой, даже с верным паролем
		_, _, err = a.Login(ctx, "user@example.com", testPassword, "10.0.0.1")
		assert.ErrorIs(t, err, models.ErrAccountLocked)
	})

	t.Run("Пустые данные отклоняются", func(t *testing.T) {
		a, _ := newTestAuth(t)

		_, _, err := a.Login(ctx, "", testPassword, "10.0.0.1")
		assert.ErrorIs(t, err, models.ErrInvalidData)
	})
}

func TestAuth_ValidateAndGetUser(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAuth(t)

	t.Run("Мусорный токен отклоняется", func(t *testing.T) {
		_, err := a.ValidateAndGetUser(ctx, "not-a-jwt")
		require.Error(t, err)
	})

	t.Run("Токен с чужой подписью отклоняется", func(t *testing.T) {
		other, _ := newTestAuth(t)
		_, err := other.Register(ctx, "user@example.com", testPassword, "10.0.0.1")
		require.NoError(t, err)
		_, token, err := other.Login(ctx, "user@example.com", testPassword, "10.0.0.1")
		require.NoError(t, err)

		foreign, err := NewAuthentication(inmemory.NewStorage(), nil,
			base64.StdEncoding.EncodeToString([]byte("another-secret-key-32-bytes!!!!!")), time.Minute)
		require.NoError(t, err)

		_, err = foreign.ValidateAndGetUser(ctx, token)
		require.Error(t, err)
	})
}
