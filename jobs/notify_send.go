package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

// NotifySendJob records pressure notifications. Delivery integration (mail,
// chat) plugs in behind this handler; until then the payload is logged so
// operators can follow flagged staff from the worker output.
type NotifySendJob struct {
	Logger *slog.Logger
}

// NewNotifySendJob wires the notification handler.
func NewNotifySendJob(logger *slog.Logger) *NotifySendJob {
	return &NotifySendJob{Logger: logger}
}

// Handle processes notify tasks.
func (j *NotifySendJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload NotifySendPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	logger := slog.Default()
	if j != nil && j.Logger != nil {
		logger = j.Logger
	}
	logger.Info("staff pressure notification",
		slog.Int64("staff_id", payload.StaffID),
		slog.Float64("pressure_score", payload.PressureScore),
		slog.String("status", payload.Status),
		slog.Int("active_cases", payload.ActiveCases),
		slog.Int("overdue_cases", payload.OverdueCases))
	return nil
}
