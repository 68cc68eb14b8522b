package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"shortlink/internal/domain/models"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

type UserStorage interface {
	UserCreate(ctx context.Context, user models.User) (models.User, error)
	UserGetByEmail(ctx context.Context, email string) (models.User, error)
	UserGetByID(ctx context.Context, id int64) (models.User, error)
}

// LoginGuard - политики защиты входа и регистрации.
type LoginGuard interface {
	CanRegister(ctx context.Context, ip string) error
	RecordRegistration(ctx context.Context, ip string) error
	CanLogin(ctx context.Context, userID int64, ip string) error
	RecordLoginFailure(ctx context.Context, userID int64, ip string) error
	ResetLoginFailures(ctx context.Context, userID int64, ip string) error
}

type Authentication struct {
	storage   UserStorage
	guard     LoginGuard
	secretKey []byte
	accessExp time.Duration
}

func NewAuthentication(userStorage UserStorage, loginGuard LoginGuard, secretKey string, accessExp time.Duration) (*Authentication, error) {
	key, err := base64.StdEncoding.DecodeString(secretKey)
	if err != nil || len(key) < 32 {
		return nil, fmt.Errorf("invalid JWT secret key: must be at least 32 bytes when decoded")
	}

	return &Authentication{
		storage:   userStorage,
		guard:     loginGuard,
		secretKey: key,
		accessExp: accessExp,
	}, nil
}

// Register создаёт пользователя, если IP не выбрал дневную квоту
// регистраций. Квота списывается только после успешного создания.
func (a *Authentication) Register(ctx context.Context, email, password, ip string) (models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return models.User{}, models.ErrInvalidData
	}

	if err := a.guard.CanRegister(ctx, ip); err != nil {
		return models.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
		Status:       models.UserStatusActive,
		CreatedAt:    time.Now().UTC(),
	}

	createdUser, err := a.storage.UserCreate(ctx, user)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	// списание квоты best-effort: пользователь уже создан,
	// откатывать его из-за счётчика нет смысла
	if err := a.guard.RecordRegistration(ctx, ip); err != nil {
		return createdUser, nil
	}

	return createdUser, nil
}

// Login сверяет пароль под двойной блокировкой неудач: составная
// IP+аккаунт и по аккаунту. Неудача пополняет оба счётчика, успех
// сбрасывает их и выдаёт токен.
func (a *Authentication) Login(ctx context.Context, email, password, ip string) (models.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return models.User{}, "", models.ErrInvalidData
	}

	user, err := a.storage.UserGetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUnfound) {
			return models.User{}, "", models.ErrWrongCredentials
		}
		return models.User{}, "", fmt.Errorf("failed to get user: %w", err)
	}

	if user.Status != models.UserStatusActive {
		return models.User{}, "", models.ErrWrongCredentials
	}

	if err := a.guard.CanLogin(ctx, user.ID, ip); err != nil {
		return models.User{}, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if recErr := a.guard.RecordLoginFailure(ctx, user.ID, ip); recErr != nil {
			return models.User{}, "", recErr
		}
		return models.User{}, "", models.ErrWrongCredentials
	}

	if err := a.guard.ResetLoginFailures(ctx, user.ID, ip); err != nil {
		return models.User{}, "", err
	}

	jwtToken, err := a.jwtGenerate(user.ID)
	if err != nil {
		return models.User{}, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return user, jwtToken, nil
}

// ValidateAndGetUser проверяет токен и возвращает его владельца.
func (a *Authentication) ValidateAndGetUser(ctx context.Context, jwtToken string) (models.User, error) {
	userID, err := a.getUserID(jwtToken)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to validate token: %w", err)
	}

	user, err := a.storage.UserGetByID(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

type Claims struct {
	jwt.RegisteredClaims
	UserID int64
}

func (a *Authentication) jwtGenerate(userID int64) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.accessExp)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
	}
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	jwtToken, err := newToken.SignedString(a.secretKey)
	if err != nil {
		return "", err
	}

	return jwtToken, nil
}

// Одновременно здесь происходит валидация токена
func (a *Authentication) getUserID(tokenString string) (int64, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.secretKey, nil
		})
	if err != nil {
		return 0, err
	}

	if !token.Valid {
		return 0, fmt.Errorf("token is not valid")
	}

	return claims.UserID, nil
}
