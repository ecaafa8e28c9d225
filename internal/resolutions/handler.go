package resolutions

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campuswatch/campuswatch/internal/accounts"
	"github.com/campuswatch/campuswatch/internal/platform/httpx"
	"github.com/campuswatch/campuswatch/internal/reports"
)

// Handler manages resolution endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers resolution routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/reports/{id}/resolve", h.resolve)
	r.Get("/reports/{id}/resolutions", h.history)
}

// ResolutionResponse is the JSON shape for resolutions.
type ResolutionResponse struct {
	ID           int64     `json:"id"`
	Reference    string    `json:"reference"`
	ReportID     int64     `json:"reportId"`
	Type         string    `json:"resolutionType"`
	Summary      string    `json:"resolutionSummary"`
	EvidencePath string    `json:"evidencePath,omitempty"`
	ResolvedBy   int64     `json:"resolvedBy"`
	Superseded   bool      `json:"superseded"`
	ResolvedAt   time.Time `json:"resolvedAt"`
}

// NewResolutionResponse maps the domain resolution to its JSON shape.
func NewResolutionResponse(resolution Resolution) ResolutionResponse {
	return ResolutionResponse{
		ID:           resolution.ID,
		Reference:    resolution.Reference.String(),
		ReportID:     resolution.ReportID,
		Type:         string(resolution.Type),
		Summary:      resolution.Summary,
		EvidencePath: resolution.EvidencePath,
		ResolvedBy:   resolution.ResolvedBy,
		Superseded:   resolution.Superseded,
		ResolvedAt:   resolution.ResolvedAt,
	}
}

type resolveRequest struct {
	ResolutionType string `json:"resolutionType" validate:"required,oneof=RESOLVED ESCALATED DISMISSED TRANSFERRED"`
	Summary        string `json:"resolutionSummary" validate:"required"`
	EvidencePath   string `json:"evidencePath"`
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	actor, ok := accounts.RequireActor(w, r)
	if !ok {
		return
	}
	reportID, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var req resolveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	resolution, err := h.service.Resolve(r.Context(), ResolveInput{
		ReportID:     reportID,
		Type:         reports.ResolutionType(req.ResolutionType),
		Summary:      req.Summary,
		EvidencePath: req.EvidencePath,
	}, *actor)
	if err != nil {
		h.logger.Warn("resolve report", slog.Int64("report_id", reportID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, NewResolutionResponse(resolution))
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	reportID, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	history, err := h.service.History(r.Context(), reportID)
	if err != nil {
		h.logger.Error("resolution history", slog.Int64("report_id", reportID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	resp := make([]ResolutionResponse, 0, len(history))
	for _, resolution := range history {
		resp = append(resp, NewResolutionResponse(resolution))
	}
	httpx.JSON(w, http.StatusOK, resp)
}
