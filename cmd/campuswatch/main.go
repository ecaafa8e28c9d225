package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/campuswatch/campuswatch/internal/accounts"
	"github.com/campuswatch/campuswatch/internal/app"
	"github.com/campuswatch/campuswatch/internal/assignments"
	"github.com/campuswatch/campuswatch/internal/platform/cache"
	"github.com/campuswatch/campuswatch/internal/platform/db"
	"github.com/campuswatch/campuswatch/internal/reports"
	"github.com/campuswatch/campuswatch/internal/resolutions"
	"github.com/campuswatch/campuswatch/internal/shared"
	"github.com/campuswatch/campuswatch/internal/stats"
	"github.com/campuswatch/campuswatch/internal/workload"
	"github.com/campuswatch/campuswatch/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Error("ensure schema", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis connect", slog.Any("error", err))
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)

	accountsRepo := accounts.NewRepository(pool)
	accountsService := accounts.NewService(accountsRepo, auditLogger)
	accountsHandler := accounts.NewHandler(logger, accountsService)

	reportsRepo := reports.NewRepository(pool)
	reportsService := reports.NewService(reportsRepo, auditLogger)
	reportsHandler := reports.NewHandler(logger, reportsService)

	resolutionsRepo := resolutions.NewRepository(pool)
	assignmentsRepo := assignments.NewRepository(pool)
	assignmentsService := assignments.NewService(assignmentsRepo, reportsService, accountsService, resolutionsRepo, auditLogger)
	assignmentsHandler := assignments.NewHandler(logger, assignmentsService)

	resolutionsService := resolutions.NewService(resolutionsRepo, reportsService, assignmentsService, auditLogger)
	resolutionsHandler := resolutions.NewHandler(logger, resolutionsService)

	workloadRepo := workload.NewRepository(pool)
	workloadService := workload.NewService(workloadRepo, accountsService, cfg.WorkloadConfig())
	workloadHandler := workload.NewHandler(logger, workloadService)

	statsCache := stats.NewCache(redisClient, cfg.StatsCacheTTL)
	statsRepo := stats.NewRepository(pool)
	statsService := stats.NewService(statsRepo, statsCache)
	statsHandler := stats.NewHandler(logger, statsService)

	if err := statsCache.ListenForInvalidation(ctx); err != nil {
		logger.Warn("stats cache subscribe", slog.Any("error", err))
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Accounts:           accountsService,
		AccountsHandler:    accountsHandler,
		ReportsHandler:     reportsHandler,
		AssignmentsHandler: assignmentsHandler,
		ResolutionsHandler: resolutionsHandler,
		WorkloadHandler:    workloadHandler,
		StatsHandler:       statsHandler,
		StatsCache:         statsCache,
		JobsHandler:        jobsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
