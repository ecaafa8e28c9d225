package workload

import (
	"time"

	"github.com/campuswatch/campuswatch/internal/reports"
)

// Status buckets a pressure score for dashboards.
type Status string

// Pressure buckets, ordered.
const (
	StatusLow      Status = "LOW"
	StatusModerate Status = "MODERATE"
	StatusHigh     Status = "HIGH"
	StatusCritical Status = "CRITICAL"
)

// CaseRow is one live assignment joined with its report, the unit the
// scoring functions consume. Rows are read without locking and may lag a
// concurrent transition by one update.
type CaseRow struct {
	ReportID    int64
	Kind        reports.Kind
	Status      reports.Status
	Severity    reports.Severity
	Category    reports.CrimeCategory
	ActionTaken string
	SubmittedAt time.Time
	AssignedAt  time.Time
}

// Urgent reports pull a dedicated weight in the pressure score.
func (c CaseRow) Urgent() bool {
	switch c.Kind {
	case reports.KindCrime:
		return c.Category.HighRisk()
	case reports.KindFacility:
		return c.Severity == reports.SeverityCritical || c.Severity == reports.SeverityHigh
	}
	return false
}

// Snapshot is the per-staff pressure aggregate. It is derived on demand and
// never persisted.
type Snapshot struct {
	StaffID                int64
	ActiveCases            int
	NoActionCases          int
	OverdueCases           int
	UrgentCases            int
	StaleNoActionCases     int
	RecentAssignments      int
	AvgCaseAgeDays         float64
	OldestCaseDays         float64
	AvgDaysSinceAssignment float64
	PressureScore          float64
	Status                 Status
	ComputedAt             time.Time
}
