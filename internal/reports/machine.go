package reports

// EventKind names a lifecycle event.
type EventKind string

// Lifecycle events.
const (
	EventAssign      EventKind = "ASSIGN"
	EventUnassign    EventKind = "UNASSIGN"
	EventResolve     EventKind = "RESOLVE"
	EventAdminReject EventKind = "ADMIN_REJECT"
)

// Event is a state-machine input. Resolution is set only for EventResolve.
type Event struct {
	Kind       EventKind
	Resolution ResolutionType
}

// Next computes the state reached from current by ev. It returns the next
// status and whether the event is a no-op: re-sending the event that produced
// the current terminal state is accepted without effect, so duplicate network
// retries from the calling layer do not surface as errors. Any other event
// not on a lifecycle edge returns an InvalidTransitionError.
func Next(current Status, ev Event) (Status, bool, error) {
	switch ev.Kind {
	case EventAssign:
		switch current {
		case StatusPending, StatusInProgress:
			return StatusInProgress, false, nil
		}
	case EventUnassign:
		if current == StatusInProgress {
			return StatusPending, false, nil
		}
	case EventResolve:
		if current == StatusInProgress {
			switch ev.Resolution {
			case ResolutionResolved:
				return StatusResolved, false, nil
			case ResolutionDismissed:
				return StatusRejected, false, nil
			case ResolutionEscalated, ResolutionTransferred:
				// The report stays open for a new assignment cycle.
				return StatusInProgress, false, nil
			}
		}
		if current == StatusResolved && ev.Resolution == ResolutionResolved {
			return StatusResolved, true, nil
		}
		if current == StatusRejected && ev.Resolution == ResolutionDismissed {
			return StatusRejected, true, nil
		}
	case EventAdminReject:
		if current == StatusPending {
			return StatusRejected, false, nil
		}
		if current == StatusRejected {
			return StatusRejected, true, nil
		}
	}
	return current, false, &InvalidTransitionError{From: current, Event: ev.Kind}
}
