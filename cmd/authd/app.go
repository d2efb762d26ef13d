package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/api"
	"github.com/99minutos/auth-service/internal/api/metrics"
	"github.com/99minutos/auth-service/internal/core/ports"
	"github.com/99minutos/auth-service/internal/core/service"
	"github.com/99minutos/auth-service/internal/infrastructure/config"
	"github.com/99minutos/auth-service/internal/infrastructure/crypto"
	"github.com/99minutos/auth-service/internal/infrastructure/db/memory"
	mongostore "github.com/99minutos/auth-service/internal/infrastructure/db/mongo"
	pgstore "github.com/99minutos/auth-service/internal/infrastructure/db/postgres"
	redisstore "github.com/99minutos/auth-service/internal/infrastructure/db/redis"
	"github.com/99minutos/auth-service/internal/infrastructure/token"
)

const serviceName = "auth-service"

type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	server *echo.Echo
	close  func(context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}

	hasher, err := crypto.NewArgon2idHasher(crypto.Params{
		Time:           cfg.Argon2.Time,
		MemoryKiB:      cfg.Argon2.MemoryKiB,
		Threads:        cfg.Argon2.Threads,
		KeyLength:      crypto.DefaultParams().KeyLength,
		SaltLength:     cfg.Argon2.SaltLength,
		MaxConcurrency: cfg.Argon2.MaxConcurrency,
	}, crypto.WithObserver(metrics.ObserveHash))
	if err != nil {
		_ = closeStore(ctx)
		return nil, err
	}

	opts := []token.Option{token.WithTTL(cfg.Token.TTL), token.WithLeeway(cfg.Token.Leeway)}
	if cfg.Token.Issuer != "" {
		opts = append(opts, token.WithIssuer(cfg.Token.Issuer))
	}
	issuer, err := token.NewJWTIssuer([]byte(cfg.Token.Secret), cfg.Token.Algorithm, opts...)
	if err != nil {
		_ = closeStore(ctx)
		return nil, err
	}

	authService, err := service.NewAuthService(
		store, hasher, issuer, cfg.CredentialPolicy(),
		log.With().Str("component", "auth_service").Logger(),
		service.WithRecorder(metrics.RecordOperation),
	)
	if err != nil {
		_ = closeStore(ctx)
		return nil, err
	}

	server := api.NewRouter(api.Deps{
		Auth:           authService,
		Store:          store,
		StoreDriver:    cfg.StoreDriver,
		RequestTimeout: cfg.RequestTimeout,
		Log:            log,
	})

	return &app{cfg: cfg, log: log, server: server, close: closeStore}, nil
}

// openStore returns the CredentialStore selected by STORE_DRIVER and a func
// that releases its connection.
func openStore(ctx context.Context, cfg *config.Config) (ports.CredentialStore, func(context.Context) error, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, store, err := mongostore.Open(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, err
		}
		return store, client.Disconnect, nil
	case config.DriverPostgres:
		pool, store, err := pgstore.Open(ctx, pgstore.Config{DSN: cfg.Postgres.DSN})
		if err != nil {
			return nil, nil, err
		}
		return store, func(context.Context) error { pool.Close(); return nil }, nil
	case config.DriverRedis:
		client, store, err := redisstore.Open(ctx, redisstore.Config{
			Addr:      cfg.Redis.Addr,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func(context.Context) error { return client.Close() }, nil
	default:
		return memory.NewCredentialStore(0), func(context.Context) error { return nil }, nil
	}
}

// run serves until SIGINT or SIGTERM, then drains within SHUTDOWN_TIMEOUT.
func (a *app) run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort("", a.cfg.Port)
	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", addr).Str("store", a.cfg.StoreDriver).Msg("http server starting")
		if err := a.server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutdown signal received")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("http server shutdown")
	}
	if err := a.close(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("close store")
	}
	a.log.Info().Msg("stopped")
	return serveErr
}
