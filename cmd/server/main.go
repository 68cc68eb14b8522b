package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"shortlink/internal/config"
	"shortlink/internal/counterstore"
	"shortlink/internal/http/server"
	"shortlink/internal/logger"
	"shortlink/internal/repository/postgres"
	"shortlink/internal/services/allocator"
	"shortlink/internal/services/auth"
	"shortlink/internal/services/clicks"
	"shortlink/internal/services/guard"
	"shortlink/internal/services/linkcache"
	"shortlink/internal/services/shortlink"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.NewConfig()
	log := logger.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := postgres.NewStorage(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer storage.Close()

	counters, err := counterstore.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer counters.Close()

	reqGuard := guard.NewGuard(counters, guard.Config{
		IPRequests:   policy(cfg.IPRateLimit),
		UserRequests: policy(cfg.UserRateLimit),
		Registration: policy(cfg.IPRegister),
		LoginFail:    policy(cfg.LoginFail),
		IPLoginFail:  policy(cfg.IPLoginFail),
	}, log)

	cache := linkcache.NewLinkCache(storage, counters, cfg.RedisMaxTTL, cfg.RedisMinCacheTTL, log)

	aggregator := clicks.NewAggregator(storage, log, clicks.Options{
		QueueSize:   cfg.ClickQueueSize,
		FlushPeriod: cfg.ClickFlushPeriod,
		Workers:     cfg.ClickWorkers,
	})
	aggregator.Start(ctx)
	defer aggregator.Stop()

	linkService := shortlink.NewService(
		storage,
		cache,
		allocator.NewAllocator(storage),
		aggregator,
		cfg.BaseURL,
		cfg.ShortlinkMinTTL,
		cfg.ShortlinkMaxTTL,
		cfg.MaxStatsDays,
	)

	authService, err := auth.NewAuthentication(storage, reqGuard, cfg.JWTSecretKey, cfg.JWTAccessExpire)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init authentication")
	}

	srv, err := server.NewServer(log, *cfg, linkService, authService, reqGuard)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init http server")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server stopped with error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}

func policy(rl config.RateLimitConfig) guard.PolicyConfig {
	return guard.PolicyConfig{
		Limit:    rl.Limit,
		Window:   rl.Window,
		FailOpen: rl.FailOpen,
	}
}
