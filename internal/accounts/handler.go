package accounts

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campuswatch/campuswatch/internal/platform/httpx"
	"github.com/campuswatch/campuswatch/internal/roles"
)

// Handler manages account endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/accounts", h.register)
	r.Post("/accounts/{id}/promote", h.promote)
	r.Post("/accounts/{id}/demote", h.demote)
	r.Delete("/accounts/{id}", h.remove)
}

// AccountResponse is the JSON shape for accounts; enum fields marshal by name.
type AccountResponse struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Department string    `json:"department"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// NewAccountResponse maps the domain account to its JSON shape.
func NewAccountResponse(account Account) AccountResponse {
	return AccountResponse{
		ID:         account.ID,
		Email:      account.Email,
		Name:       account.Name,
		Role:       string(account.Role),
		Department: account.Department,
		IsActive:   account.IsActive,
		CreatedAt:  account.CreatedAt,
		UpdatedAt:  account.UpdatedAt,
	}
}

// RequireActor pulls the authenticated actor from context, answering 401 when
// the request carried no valid token.
func RequireActor(w http.ResponseWriter, r *http.Request) (*Account, bool) {
	actor := ActorFromContext(r.Context())
	if actor == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "actor token missing or unknown")
		return nil, false
	}
	return actor, true
}

type registerRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name" validate:"required"`
	Password   string `json:"password" validate:"required,min=8"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	account, err := h.service.Register(r.Context(), RegisterInput{
		Email:      req.Email,
		Name:       req.Name,
		Password:   req.Password,
		Role:       roles.Role(req.Role),
		Department: req.Department,
	}, ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Error("register account", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, NewAccountResponse(account))
}

type promoteRequest struct {
	NewRole string `json:"newRole" validate:"required"`
}

func (h *Handler) promote(w http.ResponseWriter, r *http.Request) {
	actor, ok := RequireActor(w, r)
	if !ok {
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var req promoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	account, err := h.service.Promote(r.Context(), id, roles.Role(req.NewRole), *actor)
	if err != nil {
		h.logger.Warn("promote account", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewAccountResponse(account))
}

func (h *Handler) demote(w http.ResponseWriter, r *http.Request) {
	actor, ok := RequireActor(w, r)
	if !ok {
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	account, err := h.service.Demote(r.Context(), id, *actor)
	if err != nil {
		h.logger.Warn("demote account", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewAccountResponse(account))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	actor, ok := RequireActor(w, r)
	if !ok {
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err := h.service.Delete(r.Context(), id, *actor); err != nil {
		h.logger.Warn("delete account", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
