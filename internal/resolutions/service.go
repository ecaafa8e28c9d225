package resolutions

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/campuswatch/campuswatch/internal/accounts"
	"github.com/campuswatch/campuswatch/internal/reports"
	"github.com/campuswatch/campuswatch/internal/roles"
	"github.com/campuswatch/campuswatch/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Resolution, error)
	// GetLiveByReport returns the live resolution for the report, or a
	// shared.NotFoundError when none exists.
	GetLiveByReport(ctx context.Context, reportID int64) (Resolution, error)
	ListByReport(ctx context.Context, reportID int64) ([]Resolution, error)
}

// TxRepository exposes the transactional write operations. The report status
// swap rides in the same transaction so a resolution row can never commit
// against a stale lifecycle state.
type TxRepository interface {
	Create(ctx context.Context, resolution Resolution) (int64, error)
	SupersedeLive(ctx context.Context, reportID int64) error
	// UpdateReportStatus compare-and-swaps on the report's version column,
	// returning shared.ErrConcurrentModification on a CAS miss.
	UpdateReportStatus(ctx context.Context, reportID, version int64, status reports.Status) error
}

// ReportsPort reads report snapshots for the state machine.
type ReportsPort interface {
	Get(ctx context.Context, id int64) (reports.Report, error)
}

// AssignmentsPort resolves the current assignment holder of a report.
type AssignmentsPort interface {
	HolderOf(ctx context.Context, reportID int64) (int64, error)
}

// AuditPort records resolution events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service records terminal outcomes for reports.
type Service struct {
	repo        RepositoryPort
	reports     ReportsPort
	assignments AssignmentsPort
	audit       AuditPort
}

// NewService constructs resolution service.
func NewService(repo RepositoryPort, reportsPort ReportsPort, assignmentsPort AssignmentsPort, audit AuditPort) *Service {
	return &Service{repo: repo, reports: reportsPort, assignments: assignmentsPort, audit: audit}
}

// ResolveInput describes the resolution payload.
type ResolveInput struct {
	ReportID     int64
	Type         reports.ResolutionType
	Summary      string
	EvidencePath string
}

// Resolve closes or redirects a report's handling cycle. The report must be
// IN_PROGRESS, the actor must hold the live assignment or rank
// supervisor-or-above, and the summary must not be empty. Re-resolving an
// already-terminal report with the matching type is idempotent: the existing
// live resolution is returned and no duplicate row is created.
func (s *Service) Resolve(ctx context.Context, input ResolveInput, actor accounts.Account) (Resolution, error) {
	input.Summary = strings.TrimSpace(input.Summary)
	if input.Summary == "" {
		return Resolution{}, shared.ErrEmptySummary
	}
	if !input.Type.Valid() {
		return Resolution{}, fmt.Errorf("resolutions: unknown resolution type %q", input.Type)
	}
	report, err := s.reports.Get(ctx, input.ReportID)
	if err != nil {
		return Resolution{}, err
	}

	holder, err := s.assignments.HolderOf(ctx, input.ReportID)
	if err != nil {
		return Resolution{}, err
	}
	if err := roles.EnsureResolve(actor.Role, holder != 0 && holder == actor.ID); err != nil {
		return Resolution{}, err
	}

	if report.Status.Terminal() {
		// Duplicate terminal events are no-ops per the state machine; hand
		// back the live resolution instead of creating audit noise.
		if _, noop, err := reports.Next(report.Status, reports.Event{Kind: reports.EventResolve, Resolution: input.Type}); err == nil && noop {
			return s.repo.GetLiveByReport(ctx, input.ReportID)
		}
		return Resolution{}, shared.ErrReportNotOpen
	}
	if report.Status != reports.StatusInProgress {
		return Resolution{}, shared.ErrReportNotOpen
	}

	resolution := Resolution{
		Reference:    resolutionReference(report.ID, report.Version),
		ReportID:     input.ReportID,
		Type:         input.Type,
		Summary:      input.Summary,
		EvidencePath: input.EvidencePath,
		ResolvedBy:   actor.ID,
	}
	next, _, err := reports.Next(report.Status, reports.Event{Kind: reports.EventResolve, Resolution: input.Type})
	if err != nil {
		return Resolution{}, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateReportStatus(ctx, report.ID, report.Version, next); err != nil {
			return err
		}
		// Earlier ESCALATED/TRANSFERRED cycles leave a live row behind.
		if err := tx.SupersedeLive(ctx, input.ReportID); err != nil {
			return err
		}
		id, err := tx.Create(ctx, resolution)
		if err != nil {
			return err
		}
		resolution.ID = id
		return nil
	})
	if err != nil {
		return Resolution{}, err
	}
	s.recordAudit(ctx, actor.ID, roles.ActionResolveReport, resolution.ID, map[string]any{
		"report_id": input.ReportID,
		"type":      input.Type,
	})
	return s.repo.Get(ctx, resolution.ID)
}

// Get returns a resolution by id.
func (s *Service) Get(ctx context.Context, id int64) (Resolution, error) {
	return s.repo.Get(ctx, id)
}

// History returns every resolution recorded for the report, newest first.
func (s *Service) History(ctx context.Context, reportID int64) ([]Resolution, error) {
	return s.repo.ListByReport(ctx, reportID)
}

// resolutionReference derives a stable reference per handling cycle, so a
// retried create after a timeout names the same resolution.
func resolutionReference(reportID, version int64) uuid.UUID {
	return uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("resolution:%d:%d", reportID, version)))
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "resolution", EntityID: entityID, Meta: meta})
}
