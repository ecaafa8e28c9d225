package reports

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campuswatch/campuswatch/internal/accounts"
	"github.com/campuswatch/campuswatch/internal/platform/httpx"
	"github.com/campuswatch/campuswatch/internal/shared"
)

// Handler manages report endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/reports", h.submit)
	r.Get("/reports", h.list)
	r.Get("/reports/{id}", h.get)
	r.Post("/reports/{id}/reject", h.reject)
}

// CrimePayload is the crime-specific JSON payload.
type CrimePayload struct {
	Category      string `json:"category" validate:"required"`
	SuspectNotes  string `json:"suspectNotes,omitempty"`
	VictimNotes   string `json:"victimNotes,omitempty"`
	WeaponNotes   string `json:"weaponNotes,omitempty"`
	InjuryNotes   string `json:"injuryNotes,omitempty"`
	EvidenceNotes string `json:"evidenceNotes,omitempty"`
}

// FacilityPayload is the facility-specific JSON payload.
type FacilityPayload struct {
	FacilityType string `json:"facilityType" validate:"required"`
	Severity     string `json:"severity" validate:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
	Equipment    string `json:"equipment,omitempty"`
}

// ReportResponse is the JSON shape for reports; enum fields marshal by name.
type ReportResponse struct {
	ID          int64            `json:"id"`
	Reference   string           `json:"reference"`
	Kind        string           `json:"kind"`
	SubmittedBy int64            `json:"submittedBy"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Location    string           `json:"location"`
	Department  string           `json:"department,omitempty"`
	Status      string           `json:"status"`
	Crime       *CrimePayload    `json:"crime,omitempty"`
	Facility    *FacilityPayload `json:"facility,omitempty"`
	SubmittedAt time.Time        `json:"submittedAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// NewReportResponse maps the domain report to its JSON shape.
func NewReportResponse(report Report) ReportResponse {
	resp := ReportResponse{
		ID:          report.ID,
		Reference:   report.Reference.String(),
		Kind:        string(report.Kind),
		SubmittedBy: report.SubmittedBy,
		Title:       report.Title,
		Description: report.Description,
		Location:    report.Location,
		Department:  report.Department,
		Status:      string(report.Status),
		SubmittedAt: report.SubmittedAt,
		UpdatedAt:   report.UpdatedAt,
	}
	if report.Crime != nil {
		resp.Crime = &CrimePayload{
			Category:      string(report.Crime.Category),
			SuspectNotes:  report.Crime.SuspectNotes,
			VictimNotes:   report.Crime.VictimNotes,
			WeaponNotes:   report.Crime.WeaponNotes,
			InjuryNotes:   report.Crime.InjuryNotes,
			EvidenceNotes: report.Crime.EvidenceNotes,
		}
	}
	if report.Facility != nil {
		resp.Facility = &FacilityPayload{
			FacilityType: report.Facility.FacilityType,
			Severity:     string(report.Facility.Severity),
			Equipment:    report.Facility.Equipment,
		}
	}
	return resp
}

type submitRequest struct {
	Kind        string           `json:"kind" validate:"required,oneof=CRIME FACILITY"`
	Title       string           `json:"title" validate:"required"`
	Description string           `json:"description"`
	Location    string           `json:"location" validate:"required"`
	Department  string           `json:"department"`
	Crime       *CrimePayload    `json:"crime,omitempty"`
	Facility    *FacilityPayload `json:"facility,omitempty"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := accounts.RequireActor(w, r)
	if !ok {
		return
	}
	var req submitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := SubmitInput{
		Kind:        Kind(req.Kind),
		SubmittedBy: actor.ID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Department:  req.Department,
	}
	if req.Crime != nil {
		input.Crime = &CrimeDetails{
			Category:      CrimeCategory(req.Crime.Category),
			SuspectNotes:  req.Crime.SuspectNotes,
			VictimNotes:   req.Crime.VictimNotes,
			WeaponNotes:   req.Crime.WeaponNotes,
			InjuryNotes:   req.Crime.InjuryNotes,
			EvidenceNotes: req.Crime.EvidenceNotes,
		}
	}
	if req.Facility != nil {
		input.Facility = &FacilityDetails{
			FacilityType: req.Facility.FacilityType,
			Severity:     Severity(req.Facility.Severity),
			Equipment:    req.Facility.Equipment,
		}
	}
	report, err := h.service.Submit(r.Context(), input)
	if err != nil {
		h.logger.Warn("submit report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, NewReportResponse(report))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	report, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewReportResponse(report))
}

type listResponse struct {
	Reports    []ReportResponse  `json:"reports"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	filters := ListFilters{
		Status:   Status(r.URL.Query().Get("status")),
		Kind:     Kind(r.URL.Query().Get("kind")),
		Location: r.URL.Query().Get("location"),
		Search:   r.URL.Query().Get("search"),
	}
	reports, total, err := h.service.List(r.Context(), filters, limit, offset)
	if err != nil {
		h.logger.Error("list reports", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	resp := listResponse{
		Reports:    make([]ReportResponse, 0, len(reports)),
		Pagination: shared.NewPagination(offset/limit+1, limit, total),
	}
	for _, report := range reports {
		resp.Reports = append(resp.Reports, NewReportResponse(report))
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := accounts.RequireActor(w, r)
	if !ok {
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	report, err := h.service.AdminReject(r.Context(), id, *actor)
	if err != nil {
		h.logger.Warn("reject report", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewReportResponse(report))
}
