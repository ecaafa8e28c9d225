package reports

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLifecycleEdges(t *testing.T) {
	cases := []struct {
		name string
		from Status
		ev   Event
		want Status
		noop bool
	}{
		{"assign pending", StatusPending, Event{Kind: EventAssign}, StatusInProgress, false},
		{"reassign in progress", StatusInProgress, Event{Kind: EventAssign}, StatusInProgress, false},
		{"unassign in progress", StatusInProgress, Event{Kind: EventUnassign}, StatusPending, false},
		{"resolve", StatusInProgress, Event{Kind: EventResolve, Resolution: ResolutionResolved}, StatusResolved, false},
		{"dismiss", StatusInProgress, Event{Kind: EventResolve, Resolution: ResolutionDismissed}, StatusRejected, false},
		{"escalate keeps open", StatusInProgress, Event{Kind: EventResolve, Resolution: ResolutionEscalated}, StatusInProgress, false},
		{"transfer keeps open", StatusInProgress, Event{Kind: EventResolve, Resolution: ResolutionTransferred}, StatusInProgress, false},
		{"admin reject pending", StatusPending, Event{Kind: EventAdminReject}, StatusRejected, false},
		{"duplicate resolve", StatusResolved, Event{Kind: EventResolve, Resolution: ResolutionResolved}, StatusResolved, true},
		{"duplicate dismiss", StatusRejected, Event{Kind: EventResolve, Resolution: ResolutionDismissed}, StatusRejected, true},
		{"duplicate admin reject", StatusRejected, Event{Kind: EventAdminReject}, StatusRejected, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, noop, err := Next(tc.from, tc.ev)
			require.NoError(t, err)
			require.Equal(t, tc.want, next)
			require.Equal(t, tc.noop, noop)
		})
	}
}

func TestInvalidEdges(t *testing.T) {
	cases := []struct {
		name string
		from Status
		ev   Event
	}{
		{"resolve pending directly", StatusPending, Event{Kind: EventResolve, Resolution: ResolutionResolved}},
		{"unassign pending", StatusPending, Event{Kind: EventUnassign}},
		{"assign resolved", StatusResolved, Event{Kind: EventAssign}},
		{"assign rejected", StatusRejected, Event{Kind: EventAssign}},
		{"admin reject in progress", StatusInProgress, Event{Kind: EventAdminReject}},
		{"dismiss a resolved report", StatusResolved, Event{Kind: EventResolve, Resolution: ResolutionDismissed}},
		{"unknown resolution type", StatusInProgress, Event{Kind: EventResolve, Resolution: ResolutionType("ARCHIVED")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Next(tc.from, tc.ev)
			var invalid *InvalidTransitionError
			require.True(t, errors.As(err, &invalid))
			require.Equal(t, tc.from, invalid.From)
			require.Equal(t, tc.ev.Kind, invalid.Event)
		})
	}
}

func TestUrgentClassification(t *testing.T) {
	crime := Report{Kind: KindCrime, Crime: &CrimeDetails{Category: CategoryAssault}}
	require.True(t, crime.Urgent())

	theft := Report{Kind: KindCrime, Crime: &CrimeDetails{Category: CategoryTheft}}
	require.False(t, theft.Urgent())

	critical := Report{Kind: KindFacility, Facility: &FacilityDetails{Severity: SeverityCritical}}
	require.True(t, critical.Urgent())

	low := Report{Kind: KindFacility, Facility: &FacilityDetails{Severity: SeverityLow}}
	require.False(t, low.Urgent())
}
