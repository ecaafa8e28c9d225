package assignments

import (
	"context"
	"strings"

	"github.com/campuswatch/campuswatch/internal/accounts"
	"github.com/campuswatch/campuswatch/internal/reports"
	"github.com/campuswatch/campuswatch/internal/roles"
	"github.com/campuswatch/campuswatch/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Assignment, error)
	// GetActiveByReport returns the live assignment for the report, or a
	// shared.NotFoundError when the report is unassigned.
	GetActiveByReport(ctx context.Context, reportID int64) (Assignment, error)
	ListByReport(ctx context.Context, reportID int64) ([]Assignment, error)
	ListActiveByStaff(ctx context.Context, staffID int64) ([]Assignment, error)
	UpdateAction(ctx context.Context, id int64, actionTaken, feedback string) (Assignment, error)
}

// TxRepository exposes the transactional write operations. The report status
// swap rides in the same transaction so an assignment write can never commit
// against a stale lifecycle state.
type TxRepository interface {
	Create(ctx context.Context, assignment Assignment) (int64, error)
	Supersede(ctx context.Context, id int64) error
	// UpdateReportStatus compare-and-swaps on the report's version column,
	// returning shared.ErrConcurrentModification on a CAS miss.
	UpdateReportStatus(ctx context.Context, reportID, version int64, status reports.Status) error
}

// ReportsPort reads report snapshots for the state machine.
type ReportsPort interface {
	Get(ctx context.Context, id int64) (reports.Report, error)
}

// AccountsPort resolves staff accounts.
type AccountsPort interface {
	Get(ctx context.Context, id int64) (accounts.Account, error)
}

// ResolutionsPort answers whether a report carries a live resolution.
type ResolutionsPort interface {
	HasLive(ctx context.Context, reportID int64) (bool, error)
}

// AuditPort records assignment events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates staff-report assignment flows.
type Service struct {
	repo        RepositoryPort
	reports     ReportsPort
	accounts    AccountsPort
	resolutions ResolutionsPort
	audit       AuditPort
}

// NewService constructs assignment service.
func NewService(repo RepositoryPort, reportsPort ReportsPort, accountsPort AccountsPort, resolutionsPort ResolutionsPort, audit AuditPort) *Service {
	return &Service{repo: repo, reports: reportsPort, accounts: accountsPort, resolutions: resolutionsPort, audit: audit}
}

// Assign creates the live assignment for a report, superseding any previous
// one. The report must be PENDING or IN_PROGRESS, the target must rank staff
// or above, and the guard must permit the actor. Reassignment to the current
// holder is rejected so duplicate requests do not pollute the audit history.
func (s *Service) Assign(ctx context.Context, reportID, staffID int64, actor accounts.Account) (Assignment, error) {
	report, err := s.reports.Get(ctx, reportID)
	if err != nil {
		return Assignment{}, err
	}
	if report.Status.Terminal() {
		return Assignment{}, &reports.InvalidTransitionError{From: report.Status, Event: reports.EventAssign}
	}
	staff, err := s.accounts.Get(ctx, staffID)
	if err != nil {
		return Assignment{}, err
	}
	if err := roles.EnsureAssignee(staff.Role); err != nil {
		return Assignment{}, err
	}
	if err := roles.EnsureAssign(actor.Role, actor.ID, staffID); err != nil {
		return Assignment{}, err
	}

	var prior *Assignment
	current, err := s.repo.GetActiveByReport(ctx, reportID)
	switch {
	case err == nil:
		if current.StaffID == staffID {
			return Assignment{}, shared.ErrNoOpAssignment
		}
		prior = &current
	case shared.IsNotFound(err):
		// First assignment for this report.
	default:
		return Assignment{}, err
	}

	next, _, err := reports.Next(report.Status, reports.Event{Kind: reports.EventAssign})
	if err != nil {
		return Assignment{}, err
	}
	created := Assignment{ReportID: reportID, StaffID: staffID, AssignedBy: actor.ID}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateReportStatus(ctx, report.ID, report.Version, next); err != nil {
			return err
		}
		if prior != nil {
			if err := tx.Supersede(ctx, prior.ID); err != nil {
				return err
			}
		}
		id, err := tx.Create(ctx, created)
		if err != nil {
			return err
		}
		created.ID = id
		return nil
	})
	if err != nil {
		return Assignment{}, err
	}
	s.recordAudit(ctx, actor.ID, roles.ActionAssignReport, created.ID, map[string]any{"report_id": reportID, "staff_id": staffID})
	return s.repo.Get(ctx, created.ID)
}

// RecordAction stores the holder's action and feedback text. Pure metadata
// update, no state transition.
func (s *Service) RecordAction(ctx context.Context, assignmentID int64, actor accounts.Account, actionTaken, feedback string) (Assignment, error) {
	assignment, err := s.repo.Get(ctx, assignmentID)
	if err != nil {
		return Assignment{}, err
	}
	if !assignment.Active() {
		return Assignment{}, shared.NotFound("assignment", assignmentID)
	}
	if err := roles.EnsureRecordAction(actor.Role, actor.ID, assignment.StaffID); err != nil {
		return Assignment{}, err
	}
	actionTaken = strings.TrimSpace(actionTaken)
	updated, err := s.repo.UpdateAction(ctx, assignmentID, actionTaken, strings.TrimSpace(feedback))
	if err != nil {
		return Assignment{}, err
	}
	s.recordAudit(ctx, actor.ID, roles.ActionRecordAction, assignmentID, nil)
	return updated, nil
}

// Unassign supersedes the live assignment and moves the report back to
// PENDING, unless a live resolution already closed the handling cycle.
func (s *Service) Unassign(ctx context.Context, assignmentID int64, actor accounts.Account) error {
	assignment, err := s.repo.Get(ctx, assignmentID)
	if err != nil {
		return err
	}
	if !assignment.Active() {
		return shared.NotFound("assignment", assignmentID)
	}
	if err := roles.EnsureUnassign(actor.Role, actor.ID, assignment.StaffID); err != nil {
		return err
	}
	hasLive, err := s.resolutions.HasLive(ctx, assignment.ReportID)
	if err != nil {
		return err
	}
	if hasLive {
		return shared.ErrReportAlreadyResolved
	}
	report, err := s.reports.Get(ctx, assignment.ReportID)
	if err != nil {
		return err
	}
	next, _, err := reports.Next(report.Status, reports.Event{Kind: reports.EventUnassign})
	if err != nil {
		return err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateReportStatus(ctx, report.ID, report.Version, next); err != nil {
			return err
		}
		return tx.Supersede(ctx, assignment.ID)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actor.ID, roles.ActionUnassign, assignmentID, map[string]any{"report_id": assignment.ReportID})
	return nil
}

// Get returns an assignment by id.
func (s *Service) Get(ctx context.Context, id int64) (Assignment, error) {
	return s.repo.Get(ctx, id)
}

// History returns every assignment for the report, superseded rows included.
func (s *Service) History(ctx context.Context, reportID int64) ([]Assignment, error) {
	return s.repo.ListByReport(ctx, reportID)
}

// ActiveForStaff returns the live assignments held by one staff member.
func (s *Service) ActiveForStaff(ctx context.Context, staffID int64) ([]Assignment, error) {
	return s.repo.ListActiveByStaff(ctx, staffID)
}

// HolderOf returns the staff id holding the report's live assignment, zero
// when unassigned.
func (s *Service) HolderOf(ctx context.Context, reportID int64) (int64, error) {
	current, err := s.repo.GetActiveByReport(ctx, reportID)
	if shared.IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return current.StaffID, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "assignment", EntityID: entityID, Meta: meta})
}
