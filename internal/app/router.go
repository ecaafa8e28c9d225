package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/campuswatch/campuswatch/internal/accounts"
	"github.com/campuswatch/campuswatch/internal/assignments"
	"github.com/campuswatch/campuswatch/internal/reports"
	"github.com/campuswatch/campuswatch/internal/resolutions"
	"github.com/campuswatch/campuswatch/internal/stats"
	"github.com/campuswatch/campuswatch/internal/workload"
	"github.com/campuswatch/campuswatch/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Accounts           *accounts.Service
	AccountsHandler    *accounts.Handler
	ReportsHandler     *reports.Handler
	AssignmentsHandler *assignments.Handler
	ResolutionsHandler *resolutions.Handler
	WorkloadHandler    *workload.Handler
	StatsHandler       *stats.Handler
	StatsCache         *stats.Cache
	JobsHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router with platform defaults. Mutating
// routes run under the stats cache invalidator so dashboards never serve a
// version older than the last accepted write.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:   params.Logger,
		Config:   params.Config,
		Accounts: params.Accounts,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(params.StatsCache.InvalidateOnWrite)
		params.AccountsHandler.MountRoutes(r)
		params.ReportsHandler.MountRoutes(r)
		params.AssignmentsHandler.MountRoutes(r)
		params.ResolutionsHandler.MountRoutes(r)
	})

	params.WorkloadHandler.MountRoutes(r)
	params.StatsHandler.MountRoutes(r)
	if params.JobsHandler != nil {
		params.JobsHandler.MountRoutes(r)
	}

	return r
}
