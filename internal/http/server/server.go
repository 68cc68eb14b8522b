package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"shortlink/internal/config"
	"shortlink/internal/domain/models"
	"shortlink/internal/http/handlers/middlewares/auth"
	"shortlink/internal/http/handlers/middlewares/logger"
	"shortlink/internal/http/handlers/middlewares/throttle"
	"shortlink/internal/http/handlers/system/getping"
	"shortlink/internal/http/handlers/url/create_json"
	"shortlink/internal/http/handlers/url/delete_batch"
	"shortlink/internal/http/handlers/url/list_user_urls"
	"shortlink/internal/http/handlers/url/redirect"
	"shortlink/internal/http/handlers/url/stats"
	"shortlink/internal/http/handlers/user/login"
	"shortlink/internal/http/handlers/user/register"
)

type ServiceShortlink interface {
	CreateLink(ctx context.Context, ownerID int64, longURL, customCode string, ttl time.Duration) (models.Link, error)
	Resolve(ctx context.Context, shortCode string, visit models.VisitLog) (models.Link, error)
	UserLinks(ctx context.Context, ownerID int64) ([]models.Link, error)
	DeleteLinks(ctx context.Context, ownerID int64, shortCodes []string) ([]string, error)
	Stats(ctx context.Context, ownerID int64, shortCode string, days int) ([]models.DailyClicks, error)
	ShortURL(shortCode string) string
	PingDataBase(ctx context.Context) error
}

type Authentication interface {
	Register(ctx context.Context, email, password, ip string) (models.User, error)
	Login(ctx context.Context, email, password, ip string) (models.User, string, error)
	ValidateAndGetUser(ctx context.Context, jwtToken string) (models.User, error)
}

type RequestGuard interface {
	AllowRequest(ctx context.Context, ip string) error
	AllowUser(ctx context.Context, userID int64) error
}

type Server struct {
	httpServer  *http.Server
	router      *mux.Router
	log         *zerolog.Logger
	linkService ServiceShortlink
	authService Authentication
	reqGuard    RequestGuard
	cfg         config.Config
}

func NewServer(log *zerolog.Logger, cfg config.Config, svc ServiceShortlink, authSvc Authentication, reqGuard RequestGuard) (*Server, error) {
	if cfg.ServerAddress == "" {
		return nil, errors.New("server address cannot be empty")
	}
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if svc == nil || authSvc == nil || reqGuard == nil {
		return nil, errors.New("service dependencies cannot be nil")
	}

	s := &Server{
		router:      mux.NewRouter(),
		cfg:         cfg,
		log:         log,
		linkService: svc,
		authService: authSvc,
		reqGuard:    reqGuard,
	}

	s.httpServer = &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(logger.MiddlewareLogging(s.log))
	s.router.Use(throttle.MiddlewareThrottleIP(s.reqGuard))

	// Public routes (without auth)
	s.router.HandleFunc("/ping", getping.HandlerPing(s.linkService)).Methods("GET")
	s.router.HandleFunc("/api/user/register", register.HandlerRegister(s.authService)).Methods("POST") // 201
	s.router.HandleFunc("/api/user/login", login.HandlerLogin(s.authService)).Methods("POST")          // 200

	// Protected routes (with auth), сверх IP-лимита действует лимит пользователя
	authRouter := s.router.PathPrefix("/api").Subrouter()
	authRouter.Use(auth.MiddlewareAuth(s.authService))
	authRouter.Use(throttle.MiddlewareThrottleUser(s.reqGuard))

	authRouter.HandleFunc("/shorten", create_json.HandlerCreateJSON(s.linkService)).Methods("POST") // 201
	authRouter.HandleFunc("/user/urls", list_user_urls.HandlerListUserURLs(s.linkService)).Methods("GET")
	authRouter.HandleFunc("/user/urls", delete_batch.HandlerDeleteBatch(s.linkService)).Methods("DELETE")
	authRouter.HandleFunc("/user/urls/{code}/stats", stats.HandlerStats(s.linkService)).Methods("GET")

	// Редирект регистрируется последним, иначе он перехватит /ping
	s.router.HandleFunc("/{code}", redirect.HandlerRedirect(s.linkService)).Methods("GET") // 307
}

func (s *Server) Start(ctx context.Context) error {
	s.log.Info().Str("address", s.cfg.ServerAddress).Msg("Starting server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
