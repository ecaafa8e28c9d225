package stats

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/campuswatch/campuswatch/internal/reports"
)

// Normalization caps. Departments slower than responseCapHours score zero on
// response speed; busier than capacityCapCases active cases per staff score
// zero on capacity.
const (
	responseCapHours = 72.0
	capacityCapCases = 10.0
	hotspotMinTotal  = 3
)

var locationCaser = cases.Title(language.English)

// NormalizeLocation folds casing and whitespace so "main  LIBRARY" and
// "Main Library" land in the same hotspot bucket.
func NormalizeLocation(raw string) string {
	return locationCaser.String(strings.ToLower(strings.Join(strings.Fields(raw), " ")))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func pct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round1(100 * float64(part) / float64(whole))
}

// ComputeDepartmentEfficiency aggregates ever-assigned cases per department
// and ranks departments by the mean of the five normalized metrics.
func ComputeDepartmentEfficiency(rows []DeptCaseRow, staffCounts map[string]int) []DepartmentEfficiency {
	type acc struct {
		cases, actioned, resolved, active, sameDay int
		responseHours                              float64
	}
	byDept := make(map[string]*acc)
	for _, row := range rows {
		dept := row.Department
		if dept == "" {
			dept = "GENERAL"
		}
		a := byDept[dept]
		if a == nil {
			a = &acc{}
			byDept[dept] = a
		}
		a.cases++
		a.responseHours += row.FirstAssignedAt.Sub(row.SubmittedAt).Hours()
		if row.HasAction {
			a.actioned++
		}
		if row.Resolved {
			a.resolved++
		}
		if row.Active {
			a.active++
		}
		sy, sm, sd := row.SubmittedAt.UTC().Date()
		ay, am, ad := row.FirstAssignedAt.UTC().Date()
		if sy == ay && sm == am && sd == ad {
			a.sameDay++
		}
	}

	result := make([]DepartmentEfficiency, 0, len(byDept))
	for dept, a := range byDept {
		avgResponse := a.responseHours / float64(a.cases)
		speed := round1(100 * (1 - math.Min(math.Max(avgResponse, 0)/responseCapHours, 1)))

		staff := staffCounts[dept]
		capacity := 0.0
		if staff > 0 {
			perStaff := float64(a.active) / float64(staff)
			capacity = round1(100 * (1 - math.Min(perStaff/capacityCapCases, 1)))
		}

		row := DepartmentEfficiency{
			Department:        dept,
			CaseCount:         a.cases,
			StaffCount:        staff,
			ResponseSpeed:     speed,
			ActionRate:        pct(a.actioned, a.cases),
			ResolutionRate:    pct(a.resolved, a.cases),
			WorkloadCapacity:  capacity,
			SameDayAssignment: pct(a.sameDay, a.cases),
		}
		row.EfficiencyScore = round1((row.ResponseSpeed + row.ActionRate + row.ResolutionRate +
			row.WorkloadCapacity + row.SameDayAssignment) / 5)
		result = append(result, row)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].EfficiencyScore != result[j].EfficiencyScore {
			return result[i].EfficiencyScore > result[j].EfficiencyScore
		}
		return result[i].Department < result[j].Department
	})
	return result
}

// severityBucket grades one report for the hotspot map. Facility reports
// carry an explicit severity; crime reports map high-risk categories to the
// critical bucket and everything else to high.
func severityBucket(row HotspotRow) reports.Severity {
	if row.Kind == reports.KindCrime {
		if row.Category.HighRisk() {
			return reports.SeverityCritical
		}
		return reports.SeverityHigh
	}
	if row.Severity.Valid() {
		return row.Severity
	}
	return reports.SeverityLow
}

// ComputeHotspots groups reports by normalized location and keeps locations
// with at least three reports, busiest first.
func ComputeHotspots(rows []HotspotRow) []LocationHotspot {
	byLocation := make(map[string]*LocationHotspot)
	for _, row := range rows {
		loc := NormalizeLocation(row.Location)
		if loc == "" {
			continue
		}
		spot := byLocation[loc]
		if spot == nil {
			spot = &LocationHotspot{Location: loc}
			byLocation[loc] = spot
		}
		switch severityBucket(row) {
		case reports.SeverityCritical:
			spot.Critical++
		case reports.SeverityHigh:
			spot.High++
		case reports.SeverityMedium:
			spot.Medium++
		default:
			spot.Low++
		}
		spot.Total++
	}

	result := make([]LocationHotspot, 0, len(byLocation))
	for _, spot := range byLocation {
		if spot.Total >= hotspotMinTotal {
			result = append(result, *spot)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Total != result[j].Total {
			return result[i].Total > result[j].Total
		}
		return result[i].Location < result[j].Location
	})
	return result
}
