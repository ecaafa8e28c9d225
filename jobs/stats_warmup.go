package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/campuswatch/campuswatch/internal/stats"
)

// StatsWarmupJob pre-populates the aggregate dashboard caches.
type StatsWarmupJob struct {
	Stats  *stats.Service
	Logger *slog.Logger
	clock  func() time.Time
}

// NewStatsWarmupJob wires dependencies for the warmup handler.
func NewStatsWarmupJob(statsSvc *stats.Service, logger *slog.Logger) *StatsWarmupJob {
	return &StatsWarmupJob{
		Stats:  statsSvc,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes stats warmup tasks.
func (j *StatsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Stats == nil {
		return errors.New("stats warmup: handler not configured")
	}
	var payload StatsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Scope == "" {
		payload.Scope = "all"
	}

	start := j.clock()
	if err := j.Stats.Warmup(ctx); err != nil {
		j.logger().Error("stats warmup", slog.Any("error", err))
		return err
	}
	j.logger().Info("stats warmup complete",
		slog.String("scope", payload.Scope),
		slog.Duration("took", j.clock().Sub(start)))
	return nil
}

func (j *StatsWarmupJob) logger() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
