package assignments

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campuswatch/campuswatch/internal/accounts"
	"github.com/campuswatch/campuswatch/internal/platform/httpx"
)

// Handler manages assignment endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers assignment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/reports/{id}/assign", h.assign)
	r.Get("/reports/{id}/assignments", h.history)
	r.Post("/assignments/{id}/unassign", h.unassign)
	r.Post("/assignments/{id}/action", h.recordAction)
}

// AssignmentResponse is the JSON shape for assignments.
type AssignmentResponse struct {
	ID                 int64     `json:"id"`
	ReportID           int64     `json:"reportId"`
	StaffID            int64     `json:"staffId"`
	AssignedBy         int64     `json:"assignedBy"`
	ActionTaken        string    `json:"actionTaken,omitempty"`
	AdditionalFeedback string    `json:"additionalFeedback,omitempty"`
	Superseded         bool      `json:"superseded"`
	AssignedAt         time.Time `json:"assignedAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// NewAssignmentResponse maps the domain assignment to its JSON shape.
func NewAssignmentResponse(a Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:                 a.ID,
		ReportID:           a.ReportID,
		StaffID:            a.StaffID,
		AssignedBy:         a.AssignedBy,
		ActionTaken:        a.ActionTaken,
		AdditionalFeedback: a.AdditionalFeedback,
		Superseded:         a.Superseded,
		AssignedAt:         a.AssignedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

type assignRequest struct {
	StaffID int64 `json:"staffId" validate:"required,gt=0"`
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	actor, ok := accounts.RequireActor(w, r)
	if !ok {
		return
	}
	reportID, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var req assignRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	assignment, err := h.service.Assign(r.Context(), reportID, req.StaffID, *actor)
	if err != nil {
		h.logger.Warn("assign report", slog.Int64("report_id", reportID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, NewAssignmentResponse(assignment))
}

func (h *Handler) unassign(w http.ResponseWriter, r *http.Request) {
	actor, ok := accounts.RequireActor(w, r)
	if !ok {
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err := h.service.Unassign(r.Context(), id, *actor); err != nil {
		h.logger.Warn("unassign", slog.Int64("assignment_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type recordActionRequest struct {
	ActionTaken        string `json:"actionTaken" validate:"required"`
	AdditionalFeedback string `json:"additionalFeedback"`
}

func (h *Handler) recordAction(w http.ResponseWriter, r *http.Request) {
	actor, ok := accounts.RequireActor(w, r)
	if !ok {
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var req recordActionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	assignment, err := h.service.RecordAction(r.Context(), id, *actor, req.ActionTaken, req.AdditionalFeedback)
	if err != nil {
		h.logger.Warn("record action", slog.Int64("assignment_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewAssignmentResponse(assignment))
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	reportID, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	history, err := h.service.History(r.Context(), reportID)
	if err != nil {
		h.logger.Error("assignment history", slog.Int64("report_id", reportID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	resp := make([]AssignmentResponse, 0, len(history))
	for _, a := range history {
		resp = append(resp, NewAssignmentResponse(a))
	}
	httpx.JSON(w, http.StatusOK, resp)
}
