package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/campuswatch/campuswatch/internal/workload"
)

// NotifyEnqueuer submits notification tasks for flagged staff.
type NotifyEnqueuer interface {
	EnqueueNotifySend(ctx context.Context, payload NotifySendPayload) (*asynq.TaskInfo, error)
}

// WorkloadScanJob walks every assignable staff member and enqueues a
// notification for anyone at or above the configured pressure bucket.
type WorkloadScanJob struct {
	Workload *workload.Service
	Notifier NotifyEnqueuer
	Logger   *slog.Logger
}

// NewWorkloadScanJob wires dependencies for the scan handler.
func NewWorkloadScanJob(workloadSvc *workload.Service, notifier NotifyEnqueuer, logger *slog.Logger) *WorkloadScanJob {
	return &WorkloadScanJob{Workload: workloadSvc, Notifier: notifier, Logger: logger}
}

var bucketOrder = map[workload.Status]int{
	workload.StatusLow:      0,
	workload.StatusModerate: 1,
	workload.StatusHigh:     2,
	workload.StatusCritical: 3,
}

// Handle processes workload scan tasks.
func (j *WorkloadScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Workload == nil {
		return errors.New("workload scan: handler not configured")
	}
	var payload WorkloadScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	minStatus := workload.Status(payload.MinStatus)
	if _, ok := bucketOrder[minStatus]; !ok {
		minStatus = workload.StatusCritical
	}

	snaps, err := j.Workload.Scan(ctx)
	if err != nil {
		j.logger().Error("workload scan", slog.Any("error", err))
		return err
	}

	flagged := 0
	for _, snap := range snaps {
		if bucketOrder[snap.Status] < bucketOrder[minStatus] {
			continue
		}
		flagged++
		if j.Notifier == nil {
			continue
		}
		_, err := j.Notifier.EnqueueNotifySend(ctx, NotifySendPayload{
			StaffID:       snap.StaffID,
			PressureScore: snap.PressureScore,
			Status:        string(snap.Status),
			ActiveCases:   snap.ActiveCases,
			OverdueCases:  snap.OverdueCases,
		})
		if err != nil {
			j.logger().Warn("enqueue pressure notification",
				slog.Int64("staff_id", snap.StaffID), slog.Any("error", err))
		}
	}
	j.logger().Info("workload scan complete",
		slog.Int("staff_scanned", len(snaps)),
		slog.Int("flagged", flagged),
		slog.String("min_status", string(minStatus)))
	return nil
}

func (j *WorkloadScanJob) logger() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
