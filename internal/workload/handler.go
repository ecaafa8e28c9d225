package workload

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campuswatch/campuswatch/internal/accounts"
	"github.com/campuswatch/campuswatch/internal/platform/httpx"
)

// Handler serves workload snapshots.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers workload routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/staff/{id}/workload", h.snapshot)
}

// SnapshotResponse is the JSON shape for a workload snapshot.
type SnapshotResponse struct {
	StaffID                int64     `json:"staffId"`
	ActiveCases            int       `json:"activeCases"`
	NoActionCases          int       `json:"noActionCases"`
	OverdueCases           int       `json:"overdueCases"`
	UrgentCases            int       `json:"urgentCases"`
	StaleNoActionCases     int       `json:"staleNoActionCases"`
	RecentAssignments      int       `json:"recentAssignments"`
	AvgCaseAgeDays         float64   `json:"avgCaseAgeDays"`
	OldestCaseDays         float64   `json:"oldestCaseDays"`
	AvgDaysSinceAssignment float64   `json:"avgDaysSinceAssignment"`
	PressureScore          float64   `json:"pressureScore"`
	Status                 Status    `json:"status"`
	ComputedAt             time.Time `json:"computedAt"`
}

// NewSnapshotResponse maps the snapshot to its JSON shape.
func NewSnapshotResponse(s Snapshot) SnapshotResponse {
	return SnapshotResponse{
		StaffID:                s.StaffID,
		ActiveCases:            s.ActiveCases,
		NoActionCases:          s.NoActionCases,
		OverdueCases:           s.OverdueCases,
		UrgentCases:            s.UrgentCases,
		StaleNoActionCases:     s.StaleNoActionCases,
		RecentAssignments:      s.RecentAssignments,
		AvgCaseAgeDays:         s.AvgCaseAgeDays,
		OldestCaseDays:         s.OldestCaseDays,
		AvgDaysSinceAssignment: s.AvgDaysSinceAssignment,
		PressureScore:          s.PressureScore,
		Status:                 s.Status,
		ComputedAt:             s.ComputedAt,
	}
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	actor, ok := accounts.RequireActor(w, r)
	if !ok {
		return
	}
	staffID, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	snap, err := h.service.Snapshot(r.Context(), staffID, *actor)
	if err != nil {
		h.logger.Warn("workload snapshot", slog.Int64("staff_id", staffID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewSnapshotResponse(snap))
}
