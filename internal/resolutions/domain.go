package resolutions

import (
	"time"

	"github.com/google/uuid"

	"github.com/campuswatch/campuswatch/internal/reports"
)

// Resolution is the terminal record of one handling cycle for a report.
// ESCALATED and TRANSFERRED resolutions leave the report open for a new
// assignment cycle; a later resolution supersedes them, so at most one row
// per report is live.
type Resolution struct {
	ID           int64
	Reference    uuid.UUID
	ReportID     int64
	Type         reports.ResolutionType
	Summary      string
	EvidencePath string
	ResolvedBy   int64
	Superseded   bool
	ResolvedAt   time.Time
}

// Live reports whether this resolution determines the report's outcome.
func (r Resolution) Live() bool {
	return !r.Superseded
}
