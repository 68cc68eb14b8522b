package config

import (
	"bytes"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateJWTSecret(t *testing.T) {
	t.Run("Ключ на 32 байта проходит", func(t *testing.T) {
		cfg := &Config{JWTSecretKey: base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("k"), 32))}
		assert.NotPanics(t, cfg.validateJWTSecret)
	})

	t.Run("Длина меряется по раскодированным байтам", func(t *testing.T) {
		// 24 байта дают ровно 32 символа base64: по длине строки ключ
		// прошёл бы, по байтам не должен
		short := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("k"), 24))
		require.Len(t, short, 32)

		cfg := &Config{JWTSecretKey: short}
		assert.Panics(t, cfg.validateJWTSecret)
	})

	t.Run("Не base64", func(t *testing.T) {
		cfg := &Config{JWTSecretKey: "definitely-not-base64!!definitely-not-base64!!"}
		assert.Panics(t, cfg.validateJWTSecret)
	})

	t.Run("Пустой ключ генерируется", func(t *testing.T) {
		cfg := &Config{}
		assert.NotPanics(t, cfg.validateJWTSecret)
		assert.NotEmpty(t, cfg.JWTSecretKey)
	})
}

func TestApplyEnvDuration(t *testing.T) {
	t.Run("Go-формат", func(t *testing.T) {
		t.Setenv("TEST_DURATION", "15m")
		d := time.Second
		applyEnvDuration("TEST_DURATION", &d)
		assert.Equal(t, 15*time.Minute, d)
	})

	t.Run("Голые секунды", func(t *testing.T) {
		t.Setenv("TEST_DURATION", "86400")
		d := time.Second
		applyEnvDuration("TEST_DURATION", &d)
		assert.Equal(t, 24*time.Hour, d)
	})

	t.Run("Мусор не трогает значение", func(t *testing.T) {
		t.Setenv("TEST_DURATION", "soon")
		d := time.Second
		applyEnvDuration("TEST_DURATION", &d)
		assert.Equal(t, time.Second, d)
	})
}

// Имена переменных квоты регистраций повторяют пары из NewConfig.
func TestApplyEnvLimit_RegistrationNames(t *testing.T) {
	t.Setenv("IP_REGISTER_LIMIT", "10")
	t.Setenv("IP_REGISTER_TTL", "3600")
	t.Setenv("IP_REGISTER_FAIL_OPEN", "true")

	cfg := RateLimitConfig{Limit: 5, Window: 24 * time.Hour}
	applyEnvLimit("IP_REGISTER_LIMIT", "IP_REGISTER_TTL", "IP_REGISTER_FAIL_OPEN", &cfg)

	assert.Equal(t, int64(10), cfg.Limit)
	assert.Equal(t, time.Hour, cfg.Window)
	assert.True(t, cfg.FailOpen)
}
