package allocator

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"shortlink/internal/domain/models"
)

const (
	maxAttempts  = 5
	codeLength   = 8
	maxCodeLen   = 16
	codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// LinkStorage - вставка с уникальным ограничением на short_code.
type LinkStorage interface {
	LinkCreate(ctx context.Context, link models.Link) (models.Link, error)
}

/*
Allocator выдаёт свободные короткие коды. Резервирование - это сама
вставка строки под уникальным индексом: окна, в котором два
конкурентных вызова получили бы один код, не существует.

Случайный код берётся из crypto/rand: при 62^8 вариантах коллизия
возможна, но редка, и ограниченный цикл повторов закрывает именно
этот случай.
*/
type Allocator struct {
	storage LinkStorage
}

func NewAllocator(storage LinkStorage) *Allocator {
	return &Allocator{storage: storage}
}

// Allocate создаёт ссылку с пользовательским кодом, а при его
// отсутствии подбирает случайный. Занятый пользовательский код -
// ErrCodeTaken без повторов; исчерпанные попытки случайного подбора -
// ErrExhaustedRetries.
func (a *Allocator) Allocate(ctx context.Context, link models.Link, customCode string) (models.Link, error) {
	if customCode != "" {
		if !ValidCode(customCode) {
			return models.Link{}, fmt.Errorf("%w: bad short code %q", models.ErrInvalidData, customCode)
		}

		link.ShortCode = customCode
		created, err := a.storage.LinkCreate(ctx, link)
		if err != nil {
			if errors.Is(err, models.ErrCodeTaken) {
				return models.Link{}, fmt.Errorf("%w: %s", models.ErrCodeTaken, customCode)
			}
			return models.Link{}, fmt.Errorf("failed to create link: %w", err)
		}
		return created, nil
	}

	for i := 0; i < maxAttempts; i++ {
		link.ShortCode = randomCode()

		created, err := a.storage.LinkCreate(ctx, link)
		if err != nil {
			if errors.Is(err, models.ErrCodeTaken) {
				continue
			}
			return models.Link{}, fmt.Errorf("failed to create link: %w", err)
		}
		return created, nil
	}

	return models.Link{}, fmt.Errorf("%w: after %d attempts", models.ErrExhaustedRetries, maxAttempts)
}

// ValidCode проверяет код на алфавит и длину 1..16.
func ValidCode(code string) bool {
	if len(code) == 0 || len(code) > maxCodeLen {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(codeAlphabet, r) {
			return false
		}
	}
	return true
}

func randomCode() string {
	b := make([]byte, codeLength)
	letterCount := big.NewInt(int64(len(codeAlphabet)))

	for i := range b {
		n, _ := rand.Int(rand.Reader, letterCount)
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b)
}
