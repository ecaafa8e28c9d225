package reports

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campuswatch/campuswatch/internal/shared"
)

// Kind discriminates the report union.
type Kind string

// Report kinds.
const (
	KindCrime    Kind = "CRIME"
	KindFacility Kind = "FACILITY"
)

// Status is a report lifecycle state.
type Status string

// Lifecycle states. PENDING is initial; RESOLVED and REJECTED are terminal.
const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusResolved   Status = "RESOLVED"
	StatusRejected   Status = "REJECTED"
)

// Terminal reports whether no further lifecycle events apply.
func (s Status) Terminal() bool {
	return s == StatusResolved || s == StatusRejected
}

// Severity grades facility incidents.
type Severity string

// Facility severity levels.
const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Valid reports whether s names a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// CrimeCategory classifies crime reports.
type CrimeCategory string

// Crime categories.
const (
	CategoryTheft      CrimeCategory = "THEFT"
	CategoryAssault    CrimeCategory = "ASSAULT"
	CategoryVandalism  CrimeCategory = "VANDALISM"
	CategoryHarassment CrimeCategory = "HARASSMENT"
	CategoryBurglary   CrimeCategory = "BURGLARY"
	CategoryDrugs      CrimeCategory = "DRUGS"
	CategoryWeapon     CrimeCategory = "WEAPON"
	CategoryOther      CrimeCategory = "OTHER"
)

// HighRisk reports whether the category escalates caseload urgency.
func (c CrimeCategory) HighRisk() bool {
	switch c {
	case CategoryAssault, CategoryHarassment, CategoryWeapon, CategoryDrugs:
		return true
	}
	return false
}

// ResolutionType names the terminal outcome of a handling cycle. RESOLVED and
// DISMISSED close the report; ESCALATED and TRANSFERRED keep it open for a
// new assignment cycle.
type ResolutionType string

// Resolution types.
const (
	ResolutionResolved    ResolutionType = "RESOLVED"
	ResolutionEscalated   ResolutionType = "ESCALATED"
	ResolutionDismissed   ResolutionType = "DISMISSED"
	ResolutionTransferred ResolutionType = "TRANSFERRED"
)

// Valid reports whether t names a known resolution type.
func (t ResolutionType) Valid() bool {
	switch t {
	case ResolutionResolved, ResolutionEscalated, ResolutionDismissed, ResolutionTransferred:
		return true
	}
	return false
}

// CrimeDetails carries the crime-specific payload.
type CrimeDetails struct {
	Category      CrimeCategory
	SuspectNotes  string
	VictimNotes   string
	WeaponNotes   string
	InjuryNotes   string
	EvidenceNotes string
}

// FacilityDetails carries the facility-specific payload.
type FacilityDetails struct {
	FacilityType string
	Severity     Severity
	Equipment    string
}

// Report is a submitted crime or facility incident. Exactly one of Crime and
// Facility is non-nil, matching Kind. Status changes only through the state
// machine; Version backs the compare-and-swap on every accepted transition.
type Report struct {
	ID          int64
	Reference   uuid.UUID
	Kind        Kind
	SubmittedBy int64
	Title       string
	Description string
	Location    string
	Department  string
	Status      Status
	Crime       *CrimeDetails
	Facility    *FacilityDetails
	Version     int64
	SubmittedAt time.Time
	UpdatedAt   time.Time
}

// Urgent reports whether the incident escalates caseload urgency: critical or
// high facility severity, or a high-risk crime category.
func (r Report) Urgent() bool {
	switch r.Kind {
	case KindCrime:
		return r.Crime != nil && r.Crime.Category.HighRisk()
	case KindFacility:
		return r.Facility != nil && (r.Facility.Severity == SeverityCritical || r.Facility.Severity == SeverityHigh)
	}
	return false
}

// ErrValidation indicates invalid report input.
var ErrValidation = fmt.Errorf("reports: %w", shared.ErrValidation)

// InvalidTransitionError rejects an event not valid for the current state.
type InvalidTransitionError struct {
	From  Status
	Event EventKind
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("reports: event %s not valid in state %s", e.Event, e.From)
}

// InvalidTransition exposes the rejected edge for HTTP error mapping.
func (e *InvalidTransitionError) InvalidTransition() (string, string) {
	return string(e.From), string(e.Event)
}
