package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/transcode/internal/config"
	"github.com/JonMunkholm/transcode/internal/core"
	"github.com/JonMunkholm/transcode/internal/logging"
	"github.com/JonMunkholm/transcode/internal/metrics"
	"github.com/JonMunkholm/transcode/internal/store"
	"github.com/JonMunkholm/transcode/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	var artifacts store.Store
	if cfg.Database.UsesDatabase() {
		pool, err := connect(ctx, &cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pg := store.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			slog.Error("failed to create artifact table", "error", err)
			os.Exit(1)
		}
		artifacts = pg
	} else {
		slog.Warn("DATABASE_URL not set, artifacts are kept in memory")
		artifacts = store.NewMemoryStore()
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	service := core.NewService(artifacts, m, core.Config{
		MaxInputSize:  cfg.Convert.MaxInputSize,
		MaxConcurrent: cfg.Convert.MaxConcurrent,
		MaxWait:       cfg.Convert.MaxWaitTime,
		Timeout:       cfg.Convert.Timeout,
		Defaults:      cfg.Convert.ConvertOptions(),
	})
	slog.Info("operations registered", "count", len(service.Operations()))

	server := web.NewServer(service, m, cfg)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartRetentionScheduler(jobCtx, core.RetentionConfig{
		MaxAge:   cfg.Retention.MaxAge,
		Interval: cfg.Retention.Interval,
	})

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Abandoned workers keep running after their request times out.
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for conversions to finish", "active", status.Active)
			if err := service.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("conversions did not finish in time", "error", err)
			}
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}

// connect opens the artifact database pool and verifies it answers.
func connect(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
