package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStatsWarmup recomputes the aggregate dashboards into cache.
	TaskStatsWarmup = "stats:warmup"
	// TaskWorkloadScan flags staff under critical caseload pressure.
	TaskWorkloadScan = "workload:scan"
	// TaskNotifySend delivers one pressure notification.
	TaskNotifySend = "notify:send"
)

// StatsWarmupPayload scopes an aggregate warmup run.
type StatsWarmupPayload struct {
	Scope string `json:"scope"`
}

// NewStatsWarmupTask constructs an Asynq task.
func NewStatsWarmupTask(scope string) (*asynq.Task, error) {
	data, err := json.Marshal(StatsWarmupPayload{Scope: scope})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStatsWarmup, data), nil
}

// WorkloadScanPayload configures a pressure scan run.
type WorkloadScanPayload struct {
	// MinStatus is the lowest bucket that triggers a notification.
	MinStatus string `json:"minStatus"`
}

// NewWorkloadScanTask constructs an Asynq task.
func NewWorkloadScanTask(minStatus string) (*asynq.Task, error) {
	data, err := json.Marshal(WorkloadScanPayload{MinStatus: minStatus})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWorkloadScan, data), nil
}

// NotifySendPayload describes one staff pressure notification.
type NotifySendPayload struct {
	StaffID       int64   `json:"staffId"`
	PressureScore float64 `json:"pressureScore"`
	Status        string  `json:"status"`
	ActiveCases   int     `json:"activeCases"`
	OverdueCases  int     `json:"overdueCases"`
}

// NewNotifySendTask constructs an Asynq task.
func NewNotifySendTask(payload NotifySendPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotifySend, data), nil
}
