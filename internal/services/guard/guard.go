package guard

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"shortlink/internal/counterstore"
	"shortlink/internal/domain/models"
	"shortlink/internal/services/ratelimit"

	"github.com/rs/zerolog"
)

// Имена политик, из них собираются ключи счётчиков.
const (
	policyIPRequests  = "rate_limit:ip"
	policyUserRequest = "rate_limit:user"
	policyRegister    = "register:ip"
	policyLoginFail   = "login_fail:uid"
	policyIPLoginFail = "login_fail:ip_uid"
)

// PolicyConfig - пороги одной политики в терминах guard,
// чтобы не тянуть сюда пакет конфигурации целиком.
type PolicyConfig struct {
	Limit    int64
	Window   time.Duration
	FailOpen bool
}

type Config struct {
	IPRequests   PolicyConfig
	UserRequests PolicyConfig
	Registration PolicyConfig
	LoginFail    PolicyConfig // на аккаунт
	IPLoginFail  PolicyConfig // на пару IP+аккаунт, строже и короче
}

// LimitExceededError несёт машиночитаемое время повтора.
type LimitExceededError struct {
	Policy     string
	RetryAfter time.Duration
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("%s: retry after %s", models.ErrRateLimited, e.RetryAfter)
}

func (e *LimitExceededError) Is(target error) bool {
	return target == models.ErrRateLimited
}

// LockedError - отказ по блокировке входа, с временем разблокировки.
type LockedError struct {
	Policy     string
	RetryAfter time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s: unlocks in %s", models.ErrAccountLocked, e.RetryAfter)
}

func (e *LockedError) Is(target error) bool {
	return target == models.ErrAccountLocked
}

/*
Guard собирает пять независимых политик над одним примитивом Limiter.
Разделение бюджетов намеренное: общий IP за NAT не съедает бюджет
конкретного пользователя, а активный пользователь - бюджет всего IP.
*/
type Guard struct {
	ipRequests   *ratelimit.Limiter
	userRequests *ratelimit.Limiter
	registration *ratelimit.Limiter
	loginFail    *ratelimit.Limiter
	ipLoginFail  *ratelimit.Limiter
}

func NewGuard(store counterstore.Store, cfg Config, log *zerolog.Logger) *Guard {
	mk := func(name string, pc PolicyConfig) *ratelimit.Limiter {
		return ratelimit.NewLimiter(store, ratelimit.Policy{
			Name:     name,
			Limit:    pc.Limit,
			Window:   pc.Window,
			FailOpen: pc.FailOpen,
		}, log)
	}

	return &Guard{
		ipRequests:   mk(policyIPRequests, cfg.IPRequests),
		userRequests: mk(policyUserRequest, cfg.UserRequests),
		registration: mk(policyRegister, cfg.Registration),
		loginFail:    mk(policyLoginFail, cfg.LoginFail),
		ipLoginFail:  mk(policyIPLoginFail, cfg.IPLoginFail),
	}
}

// AllowRequest - сквозной IP-лимит на весь входящий трафик.
func (g *Guard) AllowRequest(ctx context.Context, ip string) error {
	return allow(ctx, g.ipRequests, policyIPRequests, ip)
}

// AllowUser - отдельный бюджет аутентифицированного пользователя.
func (g *Guard) AllowUser(ctx context.Context, userID int64) error {
	return allow(ctx, g.userRequests, policyUserRequest, strconv.FormatInt(userID, 10))
}

// CanRegister только читает счётчик регистраций: неудачная попытка
// регистрации квоту IP не тратит.
func (g *Guard) CanRegister(ctx context.Context, ip string) error {
	res, err := g.registration.Peek(ctx, ip)
	if err != nil {
		return err
	}
	if !res.Allowed {
		return &LimitExceededError{Policy: policyRegister, RetryAfter: res.RetryAfter}
	}
	return nil
}

// RecordRegistration списывает квоту после успешной регистрации.
func (g *Guard) RecordRegistration(ctx context.Context, ip string) error {
	return g.registration.Record(ctx, ip)
}

// CanLogin проверяет обе блокировки входа. Составная IP+аккаунт
// проверяется первой: её порог ниже, и точечный перебор с одного
// адреса она ловит раньше, чем сработает порог по аккаунту.
func (g *Guard) CanLogin(ctx context.Context, userID int64, ip string) error {
	uid := strconv.FormatInt(userID, 10)

	res, err := g.ipLoginFail.Peek(ctx, compositeKey(ip, uid))
	if err != nil {
		return err
	}
	if !res.Allowed {
		return &LockedError{Policy: policyIPLoginFail, RetryAfter: res.RetryAfter}
	}

	res, err = g.loginFail.Peek(ctx, uid)
	if err != nil {
		return err
	}
	if !res.Allowed {
		return &LockedError{Policy: policyLoginFail, RetryAfter: res.RetryAfter}
	}

	return nil
}

// RecordLoginFailure увеличивает оба счётчика неудач.
func (g *Guard) RecordLoginFailure(ctx context.Context, userID int64, ip string) error {
	uid := strconv.FormatInt(userID, 10)

	if err := g.loginFail.Record(ctx, uid); err != nil {
		return err
	}
	return g.ipLoginFail.Record(ctx, compositeKey(ip, uid))
}

// ResetLoginFailures сбрасывает счётчики после успешного входа.
func (g *Guard) ResetLoginFailures(ctx context.Context, userID int64, ip string) error {
	uid := strconv.FormatInt(userID, 10)

	if err := g.loginFail.Reset(ctx, uid); err != nil {
		return err
	}
	return g.ipLoginFail.Reset(ctx, compositeKey(ip, uid))
}

func allow(ctx context.Context, l *ratelimit.Limiter, policy, dimension string) error {
	res, err := l.Allow(ctx, dimension)
	if err != nil {
		return err
	}
	if !res.Allowed {
		return &LimitExceededError{Policy: policy, RetryAfter: res.RetryAfter}
	}
	return nil
}

func compositeKey(ip, uid string) string {
	return fmt.Sprintf("%s:%s", ip, uid)
}
