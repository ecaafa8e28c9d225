package stats

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/campuswatch/campuswatch/internal/accounts"
	"github.com/campuswatch/campuswatch/internal/platform/httpx"
)

// Handler serves the aggregate dashboards.
type Handler struct {
	logger  *slog.Logger
	service *Service
	limiter func(http.Handler) http.Handler
}

// NewHandler builds Handler instance. Aggregate scans are the most expensive
// reads in the system, so both endpoints share a per-actor rate limit.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	limiter := httprate.Limit(30, time.Minute, httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
		if actor := accounts.ActorFromContext(r.Context()); actor != nil {
			return "actor:" + strconv.FormatInt(actor.ID, 10), nil
		}
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return "ip:" + r.RemoteAddr, nil
		}
		return "ip:" + host, nil
	}))
	return &Handler{logger: logger, service: service, limiter: limiter}
}

// MountRoutes registers stats routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.limiter)
		r.Get("/stats/departments", h.departments)
		r.Get("/stats/hotspots", h.hotspots)
	})
}

func (h *Handler) departments(w http.ResponseWriter, r *http.Request) {
	if _, ok := accounts.RequireActor(w, r); !ok {
		return
	}
	result, err := h.service.DepartmentEfficiency(r.Context())
	if err != nil {
		h.logger.Warn("department efficiency", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) hotspots(w http.ResponseWriter, r *http.Request) {
	if _, ok := accounts.RequireActor(w, r); !ok {
		return
	}
	result, err := h.service.LocationHotspots(r.Context())
	if err != nil {
		h.logger.Warn("location hotspots", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
