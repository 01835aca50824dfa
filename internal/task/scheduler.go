// Package task runs the background jobs of the application. Its one job
// today is the nightly status refresh: re-deriving and persisting the status
// of every review point so dashboards stay warm without waiting on reads.
package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/phrazzld/chazara-api/internal/config"
	"github.com/phrazzld/chazara-api/internal/service/review"
)

// RefreshScheduler triggers a full review-point status refresh on a cron
// schedule.
type RefreshScheduler struct {
	scheduler    *gocron.Scheduler
	reviews      review.ReviewService
	cronSchedule string
	logger       *slog.Logger
}

// NewRefreshScheduler creates a new RefreshScheduler. The cron expression
// comes from config; it is validated when Start is called.
func NewRefreshScheduler(
	reviews review.ReviewService,
	cfg config.RefreshConfig,
	log *slog.Logger,
) *RefreshScheduler {
	if reviews == nil {
		panic("reviews cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &RefreshScheduler{
		scheduler:    gocron.NewScheduler(time.UTC),
		reviews:      reviews,
		cronSchedule: cfg.CronSchedule,
		logger:       log.With(slog.String("component", "refresh_scheduler")),
	}
}

// Start schedules the refresh job and begins running it asynchronously.
// Returns an error if the cron expression does not parse.
func (s *RefreshScheduler) Start() error {
	if _, err := s.scheduler.Cron(s.cronSchedule).Do(s.run); err != nil {
		return fmt.Errorf("failed to schedule status refresh %q: %w", s.cronSchedule, err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("status refresh scheduled",
		slog.String("cron", s.cronSchedule))
	return nil
}

// Stop terminates the scheduler. Safe to call before Start.
func (s *RefreshScheduler) Stop() {
	s.scheduler.Stop()
}

func (s *RefreshScheduler) run() {
	start := time.Now()
	summary, err := s.reviews.RefreshAll(context.Background())
	if err != nil {
		s.logger.Error("status refresh failed",
			slog.String("error", err.Error()))
		return
	}

	s.logger.Info("status refresh finished",
		slog.Int("refreshed", summary.Refreshed),
		slog.Int("changed", summary.Changed),
		slog.Int("failed", summary.Failed),
		slog.Duration("elapsed", time.Since(start)))
}

// RunNow triggers a refresh immediately, outside the cron schedule.
func (s *RefreshScheduler) RunNow(ctx context.Context) (*review.RefreshSummary, error) {
	return s.reviews.RefreshAll(ctx)
}
