package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-portal/internal/models"
	"github.com/noah-isme/sma-score-portal/pkg/jobs"
)

const (
	statsRefreshJobKey  = "stats-refresh"
	statsRefreshJobType = "stats.refresh"
)

type statsPublisher interface {
	Refresh(ctx context.Context) ([]models.PlanStatistics, error)
}

// StatsRefresherConfig tunes the background publish queue.
type StatsRefresherConfig struct {
	MaxRetries int
	RetryDelay time.Duration
}

// StatsRefresher republishes statistics in the background on a single worker. Requests that
// arrive while a refresh is already waiting are folded into it.
type StatsRefresher struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewStatsRefresher wires the publisher to its queue.
func NewStatsRefresher(publisher statsPublisher, cfg StatsRefresherConfig, logger *zap.Logger) *StatsRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := func(ctx context.Context, job jobs.Job) error {
		_, err := publisher.Refresh(ctx)
		return err
	}
	queue := jobs.NewQueue("stats-refresh", handler, jobs.QueueConfig{
		Workers:    1,
		BufferSize: 4,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return &StatsRefresher{queue: queue, logger: logger}
}

// Start launches the worker.
func (r *StatsRefresher) Start(ctx context.Context) {
	r.queue.Start(ctx)
}

// Stop waits for the worker to exit.
func (r *StatsRefresher) Stop() {
	r.queue.Stop()
}

// Schedule requests a publish without waiting for it.
func (r *StatsRefresher) Schedule(reason string) {
	if r == nil {
		return
	}
	err := r.queue.TryEnqueue(jobs.Job{
		ID:      uuid.NewString(),
		Key:     statsRefreshJobKey,
		Type:    statsRefreshJobType,
		Payload: reason,
	})
	switch {
	case err == nil:
		r.logger.Debug("statistics refresh scheduled", zap.String("reason", reason))
	case errors.Is(err, jobs.ErrQueueFull):
		r.logger.Debug("statistics refresh already queued", zap.String("reason", reason))
	default:
		r.logger.Warn("failed to schedule statistics refresh", zap.String("reason", reason), zap.Error(err))
	}
}
