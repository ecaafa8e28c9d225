package reports

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/campuswatch/campuswatch/internal/accounts"
	"github.com/campuswatch/campuswatch/internal/roles"
	"github.com/campuswatch/campuswatch/internal/shared"
)

// RepositoryPort defines data access methods for reports.
type RepositoryPort interface {
	Create(ctx context.Context, report Report) (int64, error)
	Get(ctx context.Context, id int64) (Report, error)
	List(ctx context.Context, filters ListFilters, limit, offset int) ([]Report, int, error)
	// UpdateStatus compare-and-swaps on the version column and returns the
	// updated row, or shared.ErrConcurrentModification on a CAS miss.
	UpdateStatus(ctx context.Context, id, version int64, status Status) (Report, error)
}

// AuditPort records lifecycle events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ListFilters narrows report listings.
type ListFilters struct {
	Status   Status
	Kind     Kind
	Location string
	Search   string
}

// Service owns report submission and every lifecycle transition.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// SubmitInput describes a new incident report.
type SubmitInput struct {
	Kind        Kind
	SubmittedBy int64
	Title       string
	Description string
	Location    string
	Department  string
	Crime       *CrimeDetails
	Facility    *FacilityDetails
}

// Submit creates a report in PENDING state.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (Report, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Location = strings.TrimSpace(input.Location)
	if input.Title == "" || input.Location == "" || input.SubmittedBy == 0 {
		return Report{}, ErrValidation
	}
	switch input.Kind {
	case KindCrime:
		if input.Crime == nil || input.Facility != nil || input.Crime.Category == "" {
			return Report{}, ErrValidation
		}
	case KindFacility:
		if input.Facility == nil || input.Crime != nil || !input.Facility.Severity.Valid() {
			return Report{}, ErrValidation
		}
	default:
		return Report{}, ErrValidation
	}
	report := Report{
		Reference:   uuid.New(),
		Kind:        input.Kind,
		SubmittedBy: input.SubmittedBy,
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		Department:  input.Department,
		Status:      StatusPending,
		Crime:       input.Crime,
		Facility:    input.Facility,
		Version:     1,
	}
	id, err := s.repo.Create(ctx, report)
	if err != nil {
		return Report{}, err
	}
	created, err := s.repo.Get(ctx, id)
	if err != nil {
		return Report{}, err
	}
	s.recordAudit(ctx, input.SubmittedBy, "report.submit", id, map[string]any{"kind": input.Kind})
	return created, nil
}

// Get returns a report by id.
func (s *Service) Get(ctx context.Context, id int64) (Report, error) {
	return s.repo.Get(ctx, id)
}

// List returns reports matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters, limit, offset int) ([]Report, int, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.List(ctx, filters, limit, offset)
}

// Apply runs the state machine against the given snapshot of the report and
// persists the accepted transition under optimistic concurrency. No-op events
// return the report unchanged; every other accepted transition advances
// UpdatedAt and the version.
func (s *Service) Apply(ctx context.Context, report Report, ev Event) (Report, error) {
	next, noop, err := Next(report.Status, ev)
	if err != nil {
		return Report{}, err
	}
	if noop {
		return report, nil
	}
	return s.repo.UpdateStatus(ctx, report.ID, report.Version, next)
}

// AdminReject dismisses a pending report without assignment. Admin-or-above
// only; re-rejecting a rejected report is a no-op.
func (s *Service) AdminReject(ctx context.Context, reportID int64, actor accounts.Account) (Report, error) {
	if err := roles.EnsureAdminReject(actor.Role); err != nil {
		return Report{}, err
	}
	report, err := s.repo.Get(ctx, reportID)
	if err != nil {
		return Report{}, err
	}
	updated, err := s.Apply(ctx, report, Event{Kind: EventAdminReject})
	if err != nil {
		return Report{}, err
	}
	if updated.Version != report.Version {
		s.recordAudit(ctx, actor.ID, roles.ActionRejectReport, reportID, nil)
	}
	return updated, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "report", EntityID: entityID, Meta: meta})
}
