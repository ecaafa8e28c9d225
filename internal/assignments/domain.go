package assignments

import "time"

// Assignment links a report to the staff account responsible for handling it.
// Reassignment supersedes rather than deletes: historical rows stay for
// audit, and at most one row per report is live at a time.
type Assignment struct {
	ID                 int64
	ReportID           int64
	StaffID            int64
	AssignedBy         int64
	ActionTaken        string
	AdditionalFeedback string
	Superseded         bool
	AssignedAt         time.Time
	UpdatedAt          time.Time
}

// Active reports whether this is the live assignment for its report.
func (a Assignment) Active() bool {
	return !a.Superseded
}
