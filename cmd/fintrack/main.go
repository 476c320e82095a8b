package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	be := cli.InitBackend(ctx, logger, backendCfg)

	sb, err := cli.InitSessionStore(ctx, cfg, be.Store)
	if err != nil {
		logger.Error("Failed to initialize session store", "error", err, "session_backend", cfg.SessionBackend)
		os.Exit(1)
	}
	sessions := auth.NewSessions(sb.Store, nil, cfg.SessionTTL)

	cacheManager := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	if sb.Prune != nil {
		cacheManager.Register("sessions", cache.CleanerFunc(func() int {
			pruneCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			n, err := sb.Prune(pruneCtx, time.Now())
			if err != nil {
				logger.Warn("Failed to prune expired sessions", "error", err)
				return 0
			}
			return int(n)
		}))
	}
	cacheManager.StartCleanup(10 * time.Minute)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Transactions: services.NewTransactionService(be.Store, be.Publisher, logger),
		Reports:      services.NewReportService(be.Store, logger),
		Auth:         services.NewAuthService(be.Store, sessions, logger),
		Health:       be.Store,
	}, apphttp.Options{
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		SecureCookies:      os.Getenv("COOKIE_SECURE") == "true",
		Logger:             logger,
	})

	done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cacheManager.Stop()
		if err := sb.Close(); err != nil {
			logger.Error("Session store close error", "error", err)
		}
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting fintrack server", "port", cfg.Port, "backend", cfg.DataBackend, "session_backend", cfg.SessionBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done.Done()
	logger.Info("Server stopped gracefully")
}
