package resolutions

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

type memoryResolutionRepo struct {
	resolutions map[int64]Resolution
	nextID      int64
	reportStore *memoryReportRepo
}

type memoryResolutionTx struct {
	repo *memoryResolutionRepo
}

func newMemoryResolutionRepo() *memoryResolutionRepo {
	return &memoryResolutionRepo{resolutions: make(map[int64]Resolution)}
}

func (r *memoryResolutionRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryResolutionTx{repo: r})
}

func (r *memoryResolutionRepo) Get(ctx context.Context, id int64) (Resolution, error) {
	resolution, ok := r.resolutions[id]
	if !ok {
		return Resolution{}, shared.NotFound("resolution", id)
	}
	return resolution, nil
}

func (r *memoryResolutionRepo) GetLiveByReport(ctx context.Context, reportID int64) (Resolution, error) {
	for _, resolution := range r.resolutions {
		if resolution.ReportID == reportID && !resolution.Superseded {
			return resolution, nil
		}
	}
	return Resolution{}, shared.NotFound("resolution", 0)
}

func (r *memoryResolutionRepo) ListByReport(ctx context.Context, reportID int64) ([]Resolution, error) {
	var result []Resolution
	for _, resolution := range r.resolutions {
		if resolution.ReportID == reportID {
			result = append(result, resolution)
		}
	}
	return result, nil
}

func (t *memoryResolutionTx) Create(ctx context.Context, resolution Resolution) (int64, error) {
	t.repo.nextID++
	resolution.ID = t.repo.nextID
	resolution.ResolvedAt = time.Now()
	t.repo.resolutions[resolution.ID] = resolution
	return resolution.ID, nil
}

func (t *memoryResolutionTx) UpdateReportStatus(ctx context.Context, reportID, version int64, status reports.Status) error {
	_, err := t.repo.reportStore.UpdateStatus(ctx, reportID, version, status)
	return err
}

func (t *memoryResolutionTx) SupersedeLive(ctx context.Context, reportID int64) error {
	for id, resolution := range t.repo.resolutions {
		if resolution.ReportID == reportID && !resolution.Superseded {
			resolution.Superseded = true
			t.repo.resolutions[id] = resolution
		}
	}
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

type stubHolder struct {
	holders map[int64]int64
}

func (s *stubHolder) HolderOf(ctx context.Context, reportID int64) (int64, error) {
	return s.holders[reportID], nil
}

type fixture struct {
	svc        *Service
	reportSvc  *reports.Service
	repo       *memoryResolutionRepo
	reportRepo *memoryReportRepo
	holders    *stubHolder
}

func newFixture() *fixture {
	repo := newMemoryResolutionRepo()
	reportRepo := newMemoryReportRepo()
	repo.reportStore = reportRepo
	reportSvc := reports.NewService(reportRepo, nil)
	holders := &stubHolder{holders: make(map[int64]int64)}
	return &fixture{
		svc:        NewService(repo, reportSvc, holders, nil),
		reportSvc:  reportSvc,
		repo:       repo,
		reportRepo: reportRepo,
		holders:    holders,
	}
}

func (f *fixture) inProgressReport(t *testing.T, holderID int64) reports.Report {
	t.Helper()
	ctx := context.Background()
	report, err := f.reportSvc.Submit(ctx, reports.SubmitInput{
		Kind:        reports.KindCrime,
		SubmittedBy: 99,
		Title:       "Laptop theft in lecture hall",
		Location:    "Building C",
		Crime:       &reports.CrimeDetails{Category: reports.CategoryTheft},
	})
	require.NoError(t, err)
	report, err = f.reportSvc.Apply(ctx, report, reports.Event{Kind: reports.EventAssign})
	require.NoError(t, err)
	f.holders.holders[report.ID] = holderID
	return report
}

func assignee(id int64) accounts.Account   { return accounts.Account{ID: id, Role: roles.RoleStaff} }
func supervisor(id int64) accounts.Account { return accounts.Account{ID: id, Role: roles.RoleSupervisor} }

func TestResolveClosesReport(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	report := f.inProgressReport(t, 2)

	resolution, err := f.svc.Resolve(ctx, ResolveInput{
		ReportID: report.ID,
		Type:     reports.ResolutionResolved,
		Summary:  "Suspect identified and referred to police",
	}, assignee(2))
	require.NoError(t, err)
	require.Equal(t, reports.ResolutionResolved, resolution.Type)
	require.False(t, resolution.ResolvedAt.IsZero())

	updated, err := f.reportSvc.Get(ctx, report.ID)
	require.NoError(t, err)
	require.Equal(t, reports.StatusResolved, updated.Status)
}

func TestResolveIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	report := f.inProgressReport(t, 2)

	input := ResolveInput{
		ReportID: report.ID,
		Type:     reports.ResolutionResolved,
		Summary:  "Suspect identified and referred to police",
	}
	first, err := f.svc.Resolve(ctx, input, assignee(2))
	require.NoError(t, err)

	second, err := f.svc.Resolve(ctx, input, assignee(2))
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID, "duplicate resolve returns the original row")
	require.Len(t, f.repo.resolutions, 1)
}

func TestResolveAbortsWithoutReportTransition(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	report := f.inProgressReport(t, 2)

	// A CAS miss on the report's version inside the transaction must leave
	// no resolution row behind.
	f.reportRepo.failNextUpdate = true
	_, err := f.svc.Resolve(ctx, ResolveInput{
		ReportID: report.ID,
		Type:     reports.ResolutionResolved,
		Summary:  "Suspect identified and referred to police",
	}, assignee(2))
	require.ErrorIs(t, err, shared.ErrConcurrentModification)
	require.Empty(t, f.repo.resolutions)

	after, err := f.reportSvc.Get(ctx, report.ID)
	require.NoError(t, err)
	require.Equal(t, reports.StatusInProgress, after.Status)
}

func TestResolveDismissRejectsReport(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	report := f.inProgressReport(t, 2)

	_, err := f.svc.Resolve(ctx, ResolveInput{
		ReportID: report.ID,
		Type:     reports.ResolutionDismissed,
		Summary:  "Duplicate of an earlier report",
	}, supervisor(7))
	require.NoError(t, err)

	updated, err := f.reportSvc.Get(ctx, report.ID)
	require.NoError(t, err)
	require.Equal(t, reports.StatusRejected, updated.Status)
}

func TestEscalatedKeepsReportOpen(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	report := f.inProgressReport(t, 2)

	first, err := f.svc.Resolve(ctx, ResolveInput{
		ReportID: report.ID,
		Type:     reports.ResolutionEscalated,
		Summary:  "Beyond campus security remit",
	}, assignee(2))
	require.NoError(t, err)

	updated, err := f.reportSvc.Get(ctx, report.ID)
	require.NoError(t, err)
	require.Equal(t, reports.StatusInProgress, updated.Status, "escalated report stays open for a new cycle")

	// The next handling cycle supersedes the escalation record.
	second, err := f.svc.Resolve(ctx, ResolveInput{
		ReportID: report.ID,
		Type:     reports.ResolutionResolved,
		Summary:  "Handled by city police, case closed",
	}, supervisor(7))
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	old, err := f.repo.Get(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, old.Superseded)

	live, err := f.repo.GetLiveByReport(ctx, report.ID)
	require.NoError(t, err)
	require.Equal(t, second.ID, live.ID)
}

func TestResolveGuards(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	report := f.inProgressReport(t, 2)

	// A staff member who does not hold the assignment cannot resolve.
	_, err := f.svc.Resolve(ctx, ResolveInput{
		ReportID: report.ID,
		Type:     reports.ResolutionResolved,
		Summary:  "done",
	}, assignee(3))
	var forbidden *shared.ForbiddenError
	require.True(t, errors.As(err, &forbidden))

	// Empty summary is rejected before anything else.
	_, err = f.svc.Resolve(ctx, ResolveInput{
		ReportID: report.ID,
		Type:     reports.ResolutionResolved,
		Summary:  "   ",
	}, assignee(2))
	require.ErrorIs(t, err, shared.ErrEmptySummary)
}

func TestResolvePendingReport(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	report, err := f.reportSvc.Submit(ctx, reports.SubmitInput{
		Kind:        reports.KindFacility,
		SubmittedBy: 99,
		Title:       "Leaking pipe",
		Location:    "Dorm A",
		Facility:    &reports.FacilityDetails{FacilityType: "PLUMBING", Severity: reports.SeverityMedium},
	})
	require.NoError(t, err)

	_, err = f.svc.Resolve(ctx, ResolveInput{
		ReportID: report.ID,
		Type:     reports.ResolutionResolved,
		Summary:  "n/a",
	}, supervisor(7))
	require.ErrorIs(t, err, shared.ErrReportNotOpen)
}
