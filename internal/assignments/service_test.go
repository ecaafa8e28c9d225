package assignments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campuswatch/campuswatch/internal/accounts"
	"github.com/campuswatch/campuswatch/internal/reports"
	"github.com/campuswatch/campuswatch/internal/roles"
	"github.com/campuswatch/campuswatch/internal/shared"
)

type memoryAssignRepo struct {
	assignments map[int64]Assignment
	nextID      int64
	reportStore *memoryReportRepo
}

type memoryAssignTx struct {
	repo *memoryAssignRepo
}

func newMemoryAssignRepo() *memoryAssignRepo {
	return &memoryAssignRepo{assignments: make(map[int64]Assignment)}
}

func (r *memoryAssignRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryAssignTx{repo: r})
}

func (r *memoryAssignRepo) Get(ctx context.Context, id int64) (Assignment, error) {
	a, ok := r.assignments[id]
	if !ok {
		return Assignment{}, shared.NotFound("assignment", id)
	}
	return a, nil
}

func (r *memoryAssignRepo) GetActiveByReport(ctx context.Context, reportID int64) (Assignment, error) {
	for _, a := range r.assignments {
		if a.ReportID == reportID && !a.Superseded {
			return a, nil
		}
	}
	return Assignment{}, shared.NotFound("assignment", 0)
}

func (r *memoryAssignRepo) ListByReport(ctx context.Context, reportID int64) ([]Assignment, error) {
	var result []Assignment
	for _, a := range r.assignments {
		if a.ReportID == reportID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *memoryAssignRepo) ListActiveByStaff(ctx context.Context, staffID int64) ([]Assignment, error) {
	var result []Assignment
	for _, a := range r.assignments {
		if a.StaffID == staffID && !a.Superseded {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *memoryAssignRepo) UpdateAction(ctx context.Context, id int64, actionTaken, feedback string) (Assignment, error) {
	a, ok := r.assignments[id]
	if !ok || a.Superseded {
		return Assignment{}, shared.NotFound("assignment", id)
	}
	a.ActionTaken = actionTaken
	a.AdditionalFeedback = feedback
	a.UpdatedAt = time.Now()
	r.assignments[id] = a
	return a, nil
}

func (r *memoryAssignRepo) activeCount(reportID int64) int {
	count := 0
	for _, a := range r.assignments {
		if a.ReportID == reportID && !a.Superseded {
			count++
		}
	}
	return count
}

func (t *memoryAssignTx) Create(ctx context.Context, assignment Assignment) (int64, error) {
	t.repo.nextID++
	assignment.ID = t.repo.nextID
	now := time.Now()
	assignment.AssignedAt = now
	assignment.UpdatedAt = now
	t.repo.assignments[assignment.ID] = assignment
	return assignment.ID, nil
}

func (t *memoryAssignTx) UpdateReportStatus(ctx context.Context, reportID, version int64, status reports.Status) error {
	_, err := t.repo.reportStore.UpdateStatus(ctx, reportID, version, status)
	return err
}

func (t *memoryAssignTx) Supersede(ctx context.Context, id int64) error {
	a, ok := t.repo.assignments[id]
	if !ok || a.Superseded {
		return shared.ErrConcurrentModification
	}
	a.Superseded = true
	a.UpdatedAt = time.Now()
	t.repo.assignments[id] = a
	return nil
}

type memoryReportRepo struct {
	reports        map[int64]reports.Report
	nextID         int64
	failNextUpdate bool
}

func newMemoryReportRepo() *memoryReportRepo {
	return &memoryReportRepo{reports: make(map[int64]reports.Report)}
}

func (r *memoryReportRepo) Create(ctx context.Context, report reports.Report) (int64, error) {
	r.nextID++
	report.ID = r.nextID
	now := time.Now()
	report.SubmittedAt = now
	report.UpdatedAt = now
	r.reports[report.ID] = report
	return report.ID, nil
}

func (r *memoryReportRepo) Get(ctx context.Context, id int64) (reports.Report, error) {
	report, ok := r.reports[id]
	if !ok {
		return reports.Report{}, shared.NotFound("report", id)
	}
	return report, nil
}

func (r *memoryReportRepo) List(ctx context.Context, filters reports.ListFilters, limit, offset int) ([]reports.Report, int, error) {
	return nil, 0, nil
}

func (r *memoryReportRepo) UpdateStatus(ctx context.Context, id, version int64, status reports.Status) (reports.Report, error) {
	if r.failNextUpdate {
		r.failNextUpdate = false
		return reports.Report{}, shared.ErrConcurrentModification
	}
	report, ok := r.reports[id]
	if !ok {
		return reports.Report{}, shared.NotFound("report", id)
	}
	if report.Version != version {
		return reports.Report{}, shared.ErrConcurrentModification
	}
	report.Status = status
	report.Version++
	report.UpdatedAt = time.Now()
	r.reports[id] = report
	return report, nil
}

type stubAccounts struct {
	accounts map[int64]accounts.Account
}

func (s *stubAccounts) Get(ctx context.Context, id int64) (accounts.Account, error) {
	account, ok := s.accounts[id]
	if !ok {
		return accounts.Account{}, shared.NotFound("account", id)
	}
	return account, nil
}

type stubResolutions struct {
	live map[int64]bool
}

func (s *stubResolutions) HasLive(ctx context.Context, reportID int64) (bool, error) {
	return s.live[reportID], nil
}

type fixture struct {
	svc        *Service
	reportSvc  *reports.Service
	repo       *memoryAssignRepo
	reportRepo *memoryReportRepo
	res        *stubResolutions
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMemoryAssignRepo()
	reportRepo := newMemoryReportRepo()
	reportSvc := reports.NewService(reportRepo, nil)
	repo.reportStore = reportRepo
	res := &stubResolutions{live: make(map[int64]bool)}
	accountsPort := &stubAccounts{accounts: map[int64]accounts.Account{
		1: {ID: 1, Role: roles.RoleSupervisor},
		2: {ID: 2, Role: roles.RoleStaff},
		3: {ID: 3, Role: roles.RoleStaff},
		4: {ID: 4, Role: roles.RoleStudent},
	}}
	return &fixture{
		svc:        NewService(repo, reportSvc, accountsPort, res, nil),
		reportSvc:  reportSvc,
		repo:       repo,
		reportRepo: reportRepo,
		res:        res,
	}
}

func (f *fixture) submitReport(t *testing.T) reports.Report {
	t.Helper()
	report, err := f.reportSvc.Submit(context.Background(), reports.SubmitInput{
		Kind:        reports.KindCrime,
		SubmittedBy: 4,
		Title:       "Backpack stolen from gym lockers",
		Location:    "Sports Hall",
		Crime:       &reports.CrimeDetails{Category: reports.CategoryTheft},
	})
	require.NoError(t, err)
	return report
}

func supervisor() accounts.Account { return accounts.Account{ID: 1, Role: roles.RoleSupervisor} }
func staffX() accounts.Account     { return accounts.Account{ID: 2, Role: roles.RoleStaff} }
func staffY() accounts.Account     { return accounts.Account{ID: 3, Role: roles.RoleStaff} }

func TestAssignAndReassign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	report := f.submitReport(t)

	first, err := f.svc.Assign(ctx, report.ID, 2, supervisor())
	require.NoError(t, err)
	require.Equal(t, int64(2), first.StaffID)
	require.False(t, first.Superseded)
	require.WithinDuration(t, time.Now(), first.AssignedAt, time.Second)

	updated, err := f.reportSvc.Get(ctx, report.ID)
	require.NoError(t, err)
	require.Equal(t, reports.StatusInProgress, updated.Status)

	second, err := f.svc.Assign(ctx, report.ID, 3, supervisor())
	require.NoError(t, err)
	require.Equal(t, int64(3), second.StaffID)

	prior, err := f.svc.Get(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, prior.Superseded, "reassignment supersedes, never deletes")

	after, err := f.reportSvc.Get(ctx, report.ID)
	require.NoError(t, err)
	require.Equal(t, reports.StatusInProgress, after.Status, "reassignment keeps report in progress")

	require.Equal(t, 1, f.repo.activeCount(report.ID), "at most one live assignment per report")
}

func TestAssignGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	report := f.submitReport(t)

	// Students cannot hold assignments.
	_, err := f.svc.Assign(ctx, report.ID, 4, supervisor())
	var forbidden *shared.ForbiddenError
	require.True(t, errors.As(err, &forbidden))

	// Staff may pick up a report for themselves but not hand it to others.
	_, err = f.svc.Assign(ctx, report.ID, 2, staffX())
	require.NoError(t, err)
	_, err = f.svc.Assign(ctx, report.ID, 3, staffX())
	require.True(t, errors.As(err, &forbidden))

	// Reassigning the current holder is a rejected no-op.
	_, err = f.svc.Assign(ctx, report.ID, 2, supervisor())
	require.ErrorIs(t, err, shared.ErrNoOpAssignment)
}

func TestAssignTerminalReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	report := f.submitReport(t)

	_, err := f.reportSvc.AdminReject(ctx, report.ID, accounts.Account{ID: 9, Role: roles.RoleAdmin})
	require.NoError(t, err)

	_, err = f.svc.Assign(ctx, report.ID, 2, supervisor())
	var invalid *reports.InvalidTransitionError
	require.True(t, errors.As(err, &invalid))
	require.Equal(t, reports.StatusRejected, invalid.From)
}

func TestAssignAbortsWithoutReportTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	report := f.submitReport(t)

	// A CAS miss on the report's version inside the transaction must leave
	// no assignment row behind.
	f.reportRepo.failNextUpdate = true
	_, err := f.svc.Assign(ctx, report.ID, 2, supervisor())
	require.ErrorIs(t, err, shared.ErrConcurrentModification)
	require.Equal(t, 0, f.repo.activeCount(report.ID))

	after, err := f.reportSvc.Get(ctx, report.ID)
	require.NoError(t, err)
	require.Equal(t, reports.StatusPending, after.Status)
}

func TestUnassignReturnsReportToPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	report := f.submitReport(t)

	assignment, err := f.svc.Assign(ctx, report.ID, 2, supervisor())
	require.NoError(t, err)

	require.NoError(t, f.svc.Unassign(ctx, assignment.ID, supervisor()))

	after, err := f.reportSvc.Get(ctx, report.ID)
	require.NoError(t, err)
	require.Equal(t, reports.StatusPending, after.Status)
	require.Equal(t, 0, f.repo.activeCount(report.ID))
}

func TestUnassignBlockedByLiveResolution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	report := f.submitReport(t)

	assignment, err := f.svc.Assign(ctx, report.ID, 2, supervisor())
	require.NoError(t, err)

	f.res.live[report.ID] = true
	err = f.svc.Unassign(ctx, assignment.ID, supervisor())
	require.ErrorIs(t, err, shared.ErrReportAlreadyResolved)
}

func TestRecordActionHolderOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	report := f.submitReport(t)

	assignment, err := f.svc.Assign(ctx, report.ID, 2, supervisor())
	require.NoError(t, err)

	updated, err := f.svc.RecordAction(ctx, assignment.ID, staffX(), "Interviewed witnesses", "CCTV requested")
	require.NoError(t, err)
	require.Equal(t, "Interviewed witnesses", updated.ActionTaken)
	require.Equal(t, "CCTV requested", updated.AdditionalFeedback)

	// Another staff member, and even the supervisor, cannot write the
	// holder's notes.
	var forbidden *shared.ForbiddenError
	_, err = f.svc.RecordAction(ctx, assignment.ID, staffY(), "x", "")
	require.True(t, errors.As(err, &forbidden))
	_, err = f.svc.RecordAction(ctx, assignment.ID, supervisor(), "x", "")
	require.True(t, errors.As(err, &forbidden))
}
