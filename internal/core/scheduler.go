package core

// scheduler.go runs the artifact retention job.
//
// The job deletes stored conversion outputs older than the configured maximum
// age. It runs once at start and then on a fixed interval until the context
// is cancelled. A failed run is logged and retried on the next tick.

import (
	"context"
	"log/slog"
	"time"
)

// Retention defaults used when the configured values are not positive.
const (
	DefaultRetentionMaxAge   = 24 * time.Hour
	DefaultRetentionInterval = time.Hour
)

// StartRetentionScheduler blocks, purging expired artifacts every
// cfg.Interval until ctx is cancelled. Run it on its own goroutine.
func (s *Service) StartRetentionScheduler(ctx context.Context, cfg RetentionConfig) {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultRetentionMaxAge
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultRetentionInterval
	}

	slog.Info("retention scheduler started",
		"max_age", cfg.MaxAge.String(),
		"interval", cfg.Interval.String(),
	)

	s.runRetentionJob(ctx, cfg.MaxAge)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("retention scheduler stopped")
			return
		case <-ticker.C:
			s.runRetentionJob(ctx, cfg.MaxAge)
		}
	}
}

// PurgeExpired deletes artifacts created more than maxAge ago.
func (s *Service) PurgeExpired(ctx context.Context, maxAge time.Duration) (int64, error) {
	n, err := s.store.DeleteBefore(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	s.metrics.ArtifactsPurged(n)
	return n, nil
}

func (s *Service) runRetentionJob(ctx context.Context, maxAge time.Duration) {
	start := time.Now()
	purged, err := s.PurgeExpired(ctx, maxAge)
	if err != nil {
		slog.Error("artifact purge failed", "error", err)
		return
	}
	slog.Info("purged expired artifacts",
		"artifacts_purged", purged,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
