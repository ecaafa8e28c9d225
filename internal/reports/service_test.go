package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campuswatch/campuswatch/internal/accounts"
	"github.com/campuswatch/campuswatch/internal/roles"
	"github.com/campuswatch/campuswatch/internal/shared"
)

type memoryReportRepo struct {
	reports map[int64]Report
	nextID  int64
}

func newMemoryReportRepo() *memoryReportRepo {
	return &memoryReportRepo{reports: make(map[int64]Report)}
}

func (r *memoryReportRepo) Create(ctx context.Context, report Report) (int64, error) {
	r.nextID++
	report.ID = r.nextID
	now := time.Now()
	report.SubmittedAt = now
	report.UpdatedAt = now
	r.reports[report.ID] = report
	return report.ID, nil
}

func (r *memoryReportRepo) Get(ctx context.Context, id int64) (Report, error) {
	report, ok := r.reports[id]
	if !ok {
		return Report{}, shared.NotFound("report", id)
	}
	return report, nil
}

func (r *memoryReportRepo) List(ctx context.Context, filters ListFilters, limit, offset int) ([]Report, int, error) {
	var all []Report
	for _, report := range r.reports {
		if filters.Status != "" && report.Status != filters.Status {
			continue
		}
		all = append(all, report)
	}
	return all, len(all), nil
}

func (r *memoryReportRepo) UpdateStatus(ctx context.Context, id, version int64, status Status) (Report, error) {
	report, ok := r.reports[id]
	if !ok {
		return Report{}, shared.NotFound("report", id)
	}
	if report.Version != version {
		return Report{}, shared.ErrConcurrentModification
	}
	report.Status = status
	report.Version++
	report.UpdatedAt = time.Now()
	r.reports[id] = report
	return report, nil
}

func admin(id int64) accounts.Account {
	return accounts.Account{ID: id, Role: roles.RoleAdmin}
}

func TestSubmitCrimeReport(t *testing.T) {
	svc := NewService(newMemoryReportRepo(), nil)
	ctx := context.Background()

	report, err := svc.Submit(ctx, SubmitInput{
		Kind:        KindCrime,
		SubmittedBy: 42,
		Title:       "Bike stolen at the library racks",
		Location:    "Main Library",
		Crime:       &CrimeDetails{Category: CategoryTheft},
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, report.Status)
	require.NotZero(t, report.ID)
	require.NotEqual(t, "00000000-0000-0000-0000-000000000000", report.Reference.String())
	require.NotNil(t, report.Crime)
	require.Nil(t, report.Facility)
}

func TestSubmitValidation(t *testing.T) {
	svc := NewService(newMemoryReportRepo(), nil)
	ctx := context.Background()

	cases := []SubmitInput{
		{Kind: KindCrime, SubmittedBy: 1, Title: "x", Location: "y"},                                                                         // missing crime payload
		{Kind: KindCrime, SubmittedBy: 1, Title: "x", Location: "y", Crime: &CrimeDetails{}},                                                 // empty category
		{Kind: KindFacility, SubmittedBy: 1, Title: "x", Location: "y", Facility: &FacilityDetails{Severity: "SEVERE"}},                      // unknown severity
		{Kind: KindFacility, SubmittedBy: 1, Title: "x", Location: "y", Facility: &FacilityDetails{Severity: SeverityLow}, Crime: &CrimeDetails{Category: CategoryTheft}}, // both payloads
		{Kind: Kind("NOISE"), SubmittedBy: 1, Title: "x", Location: "y"},                                                                     // unknown kind
		{Kind: KindCrime, SubmittedBy: 1, Title: "  ", Location: "y", Crime: &CrimeDetails{Category: CategoryTheft}},                         // blank title
	}
	for _, input := range cases {
		_, err := svc.Submit(ctx, input)
		require.ErrorIs(t, err, ErrValidation)
	}
}

func TestAdminReject(t *testing.T) {
	repo := newMemoryReportRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	report, err := svc.Submit(ctx, SubmitInput{
		Kind:        KindFacility,
		SubmittedBy: 1,
		Title:       "Broken window",
		Location:    "Dorm B",
		Facility:    &FacilityDetails{FacilityType: "WINDOW", Severity: SeverityLow},
	})
	require.NoError(t, err)

	// Students cannot reject.
	_, err = svc.AdminReject(ctx, report.ID, accounts.Account{ID: 9, Role: roles.RoleStudent})
	var forbidden *shared.ForbiddenError
	require.True(t, errors.As(err, &forbidden))

	rejected, err := svc.AdminReject(ctx, report.ID, admin(2))
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rejected.Status)
	require.True(t, rejected.UpdatedAt.After(report.UpdatedAt) || rejected.Version > report.Version)

	// Duplicate reject is a no-op, not an error.
	again, err := svc.AdminReject(ctx, report.ID, admin(2))
	require.NoError(t, err)
	require.Equal(t, rejected.Version, again.Version)
}

func TestApplyConcurrentModification(t *testing.T) {
	repo := newMemoryReportRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	report, err := svc.Submit(ctx, SubmitInput{
		Kind:        KindCrime,
		SubmittedBy: 1,
		Title:       "Graffiti",
		Location:    "Parking lot",
		Crime:       &CrimeDetails{Category: CategoryVandalism},
	})
	require.NoError(t, err)

	// First transition wins.
	_, err = svc.Apply(ctx, report, Event{Kind: EventAssign})
	require.NoError(t, err)

	// Second transition from the stale snapshot loses the CAS.
	_, err = svc.Apply(ctx, report, Event{Kind: EventAdminReject})
	require.ErrorIs(t, err, shared.ErrConcurrentModification)
}
