// Package main is the entry point for the Gatekeeper server.
// Gatekeeper is a session-based authentication service with role-gated
// user management.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prn-tf/gatekeeper/internal/auth"
	"github.com/prn-tf/gatekeeper/internal/config"
	"github.com/prn-tf/gatekeeper/internal/handler"
	"github.com/prn-tf/gatekeeper/internal/metrics"
	"github.com/prn-tf/gatekeeper/internal/repository"
	"github.com/prn-tf/gatekeeper/internal/repository/postgres"
	"github.com/prn-tf/gatekeeper/internal/repository/sqlite"
	"github.com/prn-tf/gatekeeper/internal/service"
	"github.com/prn-tf/gatekeeper/internal/session"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	logger := newLogger(cfg.Logging)

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting Gatekeeper server")

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	userRepo, dbClose, err := newUserRepository(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer dbClose()

	// Session store
	sessionStore, storeClose, err := newSessionStore(ctx, cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("failed to set up session store: %w", err)
	}
	defer storeClose()

	sessions := session.NewManager(sessionStore, cfg.Session.TTL, logger)

	// Services
	userService := service.NewUserService(userRepo, cfg.Auth.BcryptCost, logger)
	authService := service.NewAuthService(userRepo, sessions, logger)

	// Bootstrap: a fresh deployment always has a master account.
	if err := userService.EnsureSeedUser(ctx, cfg.Auth.SeedUsername, cfg.Auth.SeedPassword); err != nil {
		return fmt.Errorf("failed to ensure seed user: %w", err)
	}

	// Handlers
	authHandler := handler.NewAuthHandler(handler.AuthHandlerConfig{
		AuthService:  authService,
		CookieName:   cfg.Session.CookieName,
		CookieSecure: cfg.Session.CookieSecure,
		SessionTTL:   cfg.Session.TTL,
		Logger:       logger,
	})
	userHandler := handler.NewUserHandler(userService, logger)

	var metricsMiddleware func(http.Handler) http.Handler
	if cfg.Metrics.Enabled {
		metricsMiddleware = metrics.New().Middleware
	}

	router := handler.NewRouter(handler.RouterConfig{
		AuthHandler:       authHandler,
		UserHandler:       userHandler,
		SessionMiddleware: auth.Sessions(authService, cfg.Session.CookieName, logger),
		MetricsMiddleware: metricsMiddleware,
		Logger:            logger,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
		metricsSrv = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: mux,
		}
		go func() {
			logger.Info().Str("addr", metricsSrv.Addr).Str("path", cfg.Metrics.Path).Msg("metrics server listening")
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown failed")
		}
	}

	logger.Info().Msg("server stopped")
	return nil
}

// newUserRepository opens the configured database backend and returns the
// user repository plus a close function.
func newUserRepository(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (repository.UserRepository, func(), error) {
	switch cfg.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.NewUserRepository(db), func() { db.Close() }, nil

	default: // sqlite
		sqliteCfg := sqlite.DefaultConfig(cfg.Path)
		if cfg.JournalMode != "" {
			sqliteCfg.JournalMode = cfg.JournalMode
		}
		if cfg.BusyTimeout > 0 {
			sqliteCfg.BusyTimeout = cfg.BusyTimeout
		}
		if cfg.SynchronousMode != "" {
			sqliteCfg.SynchronousMode = cfg.SynchronousMode
		}
		db, err := sqlite.NewDB(ctx, sqliteCfg, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return sqlite.NewUserRepository(db), func() { db.Close() }, nil
	}
}

// newSessionStore returns the Redis session store when Redis is enabled,
// falling back to the in-process store otherwise.
func newSessionStore(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (session.Store, func(), error) {
	if !cfg.Enabled {
		store := session.NewMemoryStore()
		return store, store.Stop, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr()).Msg("connected to Redis session store")
	return session.NewRedisStore(client), func() { _ = client.Close() }, nil
}

// newLogger builds the root logger from configuration.
func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
