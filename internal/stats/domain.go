package stats

import (
	"time"

	"github.com/campuswatch/campuswatch/internal/reports"
)

// DepartmentEfficiency is one ranked row of the department dashboard. All
// component metrics are normalized to 0-100.
type DepartmentEfficiency struct {
	Department        string  `json:"department"`
	CaseCount         int     `json:"caseCount"`
	StaffCount        int     `json:"staffCount"`
	ResponseSpeed     float64 `json:"responseSpeed"`
	ActionRate        float64 `json:"actionRate"`
	ResolutionRate    float64 `json:"resolutionRate"`
	WorkloadCapacity  float64 `json:"workloadCapacity"`
	SameDayAssignment float64 `json:"sameDayAssignment"`
	EfficiencyScore   float64 `json:"efficiencyScore"`
}

// LocationHotspot aggregates reports for one normalized location.
type LocationHotspot struct {
	Location string `json:"location"`
	Critical int    `json:"critical"`
	High     int    `json:"high"`
	Medium   int    `json:"medium"`
	Low      int    `json:"low"`
	Total    int    `json:"total"`
}

// DeptCaseRow is one ever-assigned report attributed to a department: the
// first assignee's department when set, the report's own otherwise.
type DeptCaseRow struct {
	Department      string
	SubmittedAt     time.Time
	FirstAssignedAt time.Time
	HasAction       bool
	Resolved        bool
	Active          bool
}

// HotspotRow is the location/severity projection of one report.
type HotspotRow struct {
	Location string
	Kind     reports.Kind
	Severity reports.Severity
	Category reports.CrimeCategory
}
