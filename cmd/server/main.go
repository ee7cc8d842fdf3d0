package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"charachat/internal/config"
	"charachat/internal/database"
	"charachat/internal/handlers"
	"charachat/internal/middleware"
	"charachat/internal/repository"
	"charachat/internal/router"
	"charachat/internal/services"
	"charachat/internal/telemetry"
	"charachat/internal/websocket"
	"charachat/internal/worker"
)

const (
	serviceName    = "charachat"
	serviceVersion = "0.1.0"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// ──── Step 2: Initialize Logging ────
	logger, closeLog, err := telemetry.InitLogger(telemetry.LoggerOptions{
		Dir:    cfg.LogDir,
		File:   serviceName + ".log",
		Level:  telemetry.ParseLevel(cfg.LogLevel),
		Stdout: true,
	})
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}
	defer closeLog()
	logger.Info("starting relay server", "env", cfg.Env, "provider", cfg.LLMProvider, "model", cfg.LLMModel)

	// ──── Step 3: Initialize Telemetry ────
	if cfg.TelemetryEnabled {
		shutdownTelemetry, err := telemetry.InitTelemetry(ctx, cfg.LogDir, serviceName, serviceVersion)
		if err != nil {
			return fmt.Errorf("telemetry initialization failed: %w", err)
		}
		defer shutdownTelemetry()
		logger.Info("telemetry exporters enabled", "dir", cfg.LogDir)
	}

	// ──── Step 4: Initialize Upstream Completer ────
	completer, err := services.NewCompleter(ctx, cfg)
	switch {
	case errors.Is(err, services.ErrNotConfigured):
		logger.Warn("LLM_API_KEY is not set; chat requests will fail until it is configured")
	case err != nil:
		return fmt.Errorf("completer initialization failed: %w", err)
	}
	if c, ok := completer.(io.Closer); ok {
		defer c.Close()
	}

	// ──── Step 5: Initialize Exchange Log (optional) ────
	var recorder services.ExchangeRecorder
	if cfg.DatabaseURL != "" {
		store, closeStore, err := openExchangeStore(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		pool := worker.NewPool(store, 2, 256, logger)
		pool.Start()
		defer pool.Stop()
		recorder = pool
	}

	// ──── Step 6: Initialize Relay ────
	relay := services.NewRelayService(completer, recorder, logger)
	relayHandler := handlers.NewRelayHandler(relay, logger)
	wsHub := websocket.NewHub(relay, cfg.FrontendURL, logger)

	// ──── Step 7: Optional Guards ────
	var jwtAuth *middleware.JWTAuth
	if cfg.JWTSecret != "" {
		jwtAuth = middleware.NewJWTAuth(cfg.JWTSecret)
		logger.Info("bearer token auth enabled for /api/chat")
	}

	var limiter router.Limiter
	if cfg.RateLimitPerMin > 0 {
		if cfg.RedisURL != "" {
			redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
			if err != nil {
				return fmt.Errorf("redis connection failed: %w", err)
			}
			defer redisClient.Close()
			limiter = middleware.NewRedisRateLimiter(redisClient, cfg.RateLimitPerMin, time.Minute, logger)
			logger.Info("rate limiter enabled", "store", "redis", "per_minute", cfg.RateLimitPerMin)
		} else {
			memLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMin, time.Minute)
			defer memLimiter.Stop()
			limiter = memLimiter
			logger.Info("rate limiter enabled", "store", "memory", "per_minute", cfg.RateLimitPerMin)
		}
	}

	// ──── Step 8: Start HTTP Server ────
	r := router.New(relayHandler, wsHub, jwtAuth, limiter, logger, cfg.FrontendURL, cfg.StaticDir)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("relay ready",
			"api", fmt.Sprintf("http://localhost:%s/api/chat", cfg.Port),
			"ws", fmt.Sprintf("ws://localhost:%s/api/chat/ws", cfg.Port),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// Graceful shutdown
	logger.Info("shutting down")
	wsHub.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	return nil
}

// openExchangeStore connects the exchange log named by databaseURL and runs
// its migrations.
func openExchangeStore(ctx context.Context, databaseURL string, logger *slog.Logger) (worker.ExchangeStore, func(), error) {
	dialect, dsn, err := database.ParseURL(databaseURL)
	if err != nil {
		return nil, nil, err
	}

	switch dialect {
	case database.DialectPostgres:
		pool, err := database.NewPostgresPool(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("PostgreSQL connection failed: %w", err)
		}
		if err := database.RunMigrations(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("database migration failed: %w", err)
		}
		logger.Info("exchange log enabled", "dialect", dialect)
		return repository.NewExchangeRepo(pool), pool.Close, nil

	default:
		db, err := database.OpenSQLite(ctx, dsn, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("SQLite open failed: %w", err)
		}
		logger.Info("exchange log enabled", "dialect", dialect, "path", dsn)
		return repository.NewSQLiteExchangeRepo(db), func() { db.Close() }, nil
	}
}
