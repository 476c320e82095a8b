// Package cli provides common CLI initialization utilities shared by
// cmd/fintrack and cmd/fintrack-worker.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/auth"
	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

// SetupLogger initializes structured logging at level and installs it as
// the default logger.
func SetupLogger(level string) *log.Logger {
	lvl := log.ParseLevel(level)
	logger := log.New(log.Config{
		Level:     lvl,
		Component: log.ComponentApp,
		Handler:   slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}),
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitBackend opens the ledger store (and the optional event publisher)
// selected by cfg. Exits the process on failure.
func InitBackend(ctx context.Context, logger *log.Logger, cfg backend.Config) *backend.BackendResult {
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.Type)
		os.Exit(1)
	}
	return res
}

// SessionBackend is the session store chosen by SESSION_BACKEND, with its
// pruning job when the store needs one.
type SessionBackend struct {
	Store auth.SessionStore
	// Prune removes expired sessions; nil when the store expires keys itself.
	Prune func(ctx context.Context, now time.Time) (int64, error)
	Close func() error
}

// InitSessionStore builds the session store for cfg on top of the ledger
// database or Redis.
func InitSessionStore(ctx context.Context, cfg *config.Config, q ledger.SessionQueries) (*SessionBackend, error) {
	switch cfg.SessionBackend {
	case "redis":
		client, err := auth.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return &SessionBackend{Store: auth.NewRedisSessionStore(client), Close: client.Close}, nil
	case "database", "":
		store := auth.NewSQLSessionStore(q)
		return &SessionBackend{Store: store, Prune: store.Prune, Close: func() error { return nil }}, nil
	default:
		return nil, fmt.Errorf("unsupported session backend: %s", cfg.SessionBackend)
	}
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that is cancelled once cleanup has run after SIGINT or
// SIGTERM.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		}
		cancel()
	}()

	return ctx
}
