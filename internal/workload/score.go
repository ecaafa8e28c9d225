package workload

import (
	"math"
	"time"

	"github.com/campuswatch/campuswatch/internal/reports"
)

// Config carries the scoring policy. Weights sum to 100 so a staff member
// saturating every cap lands exactly on a score of 100; caps and SLA windows
// are operational tuning knobs, not contracts.
type Config struct {
	WeightActive  float64
	WeightOverdue float64
	WeightUrgent  float64
	WeightStale   float64
	WeightAge     float64

	CapActive  float64
	CapOverdue float64
	CapUrgent  float64
	CapStale   float64
	CapAgeDays float64

	OverdueAfter time.Duration
	StaleAfter   time.Duration
	RecentWindow time.Duration
}

// DefaultConfig returns the stock policy.
func DefaultConfig() Config {
	return Config{
		WeightActive:  30,
		WeightOverdue: 25,
		WeightUrgent:  20,
		WeightStale:   15,
		WeightAge:     10,
		CapActive:     10,
		CapOverdue:    5,
		CapUrgent:     5,
		CapStale:      5,
		CapAgeDays:    30,
		OverdueAfter:  7 * 24 * time.Hour,
		StaleAfter:    3 * 24 * time.Hour,
		RecentWindow:  7 * 24 * time.Hour,
	}
}

// Bucket maps a score to its categorical status.
func Bucket(score float64) Status {
	switch {
	case score >= 80:
		return StatusCritical
	case score >= 60:
		return StatusHigh
	case score >= 35:
		return StatusModerate
	default:
		return StatusLow
	}
}

func ratio(count, cap float64) float64 {
	if cap <= 0 {
		return 0
	}
	return math.Min(count/cap, 1)
}

func days(d time.Duration) float64 {
	return d.Hours() / 24
}

// Compute derives the snapshot for one staff member from their live case
// rows. It is a pure function of (rows, now, cfg): adding a case never lowers
// the score and the result always lands in [0, 100].
func Compute(staffID int64, rows []CaseRow, now time.Time, cfg Config) Snapshot {
	snap := Snapshot{StaffID: staffID, Status: StatusLow, ComputedAt: now}

	var ageSum, sinceSum float64
	for _, row := range rows {
		if now.Sub(row.AssignedAt) <= cfg.RecentWindow {
			snap.RecentAssignments++
		}
		// A row caught mid-transition still carries its old status; count
		// only cases the report side confirms as open.
		if row.Status != reports.StatusInProgress {
			continue
		}
		snap.ActiveCases++
		age := now.Sub(row.SubmittedAt)
		since := now.Sub(row.AssignedAt)
		ageSum += days(age)
		sinceSum += days(since)
		if days(age) > snap.OldestCaseDays {
			snap.OldestCaseDays = days(age)
		}
		if age > cfg.OverdueAfter {
			snap.OverdueCases++
		}
		if row.Urgent() {
			snap.UrgentCases++
		}
		if row.ActionTaken == "" {
			snap.NoActionCases++
			if age > cfg.StaleAfter {
				snap.StaleNoActionCases++
			}
		}
	}
	if snap.ActiveCases > 0 {
		snap.AvgCaseAgeDays = ageSum / float64(snap.ActiveCases)
		snap.AvgDaysSinceAssignment = sinceSum / float64(snap.ActiveCases)
	}

	score := cfg.WeightActive*ratio(float64(snap.ActiveCases), cfg.CapActive) +
		cfg.WeightOverdue*ratio(float64(snap.OverdueCases), cfg.CapOverdue) +
		cfg.WeightUrgent*ratio(float64(snap.UrgentCases), cfg.CapUrgent) +
		cfg.WeightStale*ratio(float64(snap.StaleNoActionCases), cfg.CapStale) +
		cfg.WeightAge*ratio(snap.AvgCaseAgeDays, cfg.CapAgeDays)

	snap.PressureScore = math.Round(math.Max(0, math.Min(score, 100))*10) / 10
	snap.Status = Bucket(snap.PressureScore)
	return snap
}
