package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/campuswatch/campuswatch/internal/accounts"
	"github.com/campuswatch/campuswatch/internal/app"
	"github.com/campuswatch/campuswatch/internal/platform/cache"
	"github.com/campuswatch/campuswatch/internal/platform/db"
	"github.com/campuswatch/campuswatch/internal/shared"
	"github.com/campuswatch/campuswatch/internal/stats"
	"github.com/campuswatch/campuswatch/internal/workload"
	"github.com/campuswatch/campuswatch/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	statsCache := stats.NewCache(redisClient, cfg.StatsCacheTTL)
	statsRepo := stats.NewRepository(pool)
	statsService := stats.NewService(statsRepo, statsCache)

	accountsRepo := accounts.NewRepository(pool)
	accountsService := accounts.NewService(accountsRepo, shared.NewAuditLogger(pool))

	workloadRepo := workload.NewRepository(pool)
	workloadService := workload.NewService(workloadRepo, accountsService, cfg.WorkloadConfig())

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	client, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init asynq client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	warmupJob := jobs.NewStatsWarmupJob(statsService, logger)
	scanJob := jobs.NewWorkloadScanJob(workloadService, client, logger)
	notifyJob := jobs.NewNotifySendJob(logger)

	warmupTask, err := jobs.NewStatsWarmupTask("all")
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}
	scanTask, err := jobs.NewWorkloadScanTask(string(workload.StatusCritical))
	if err != nil {
		logger.Error("build scan task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskStatsWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskWorkloadScan, Handler: scanJob.Handle},
			{Type: jobs.TaskNotifySend, Handler: notifyJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/15 * * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 * * * *", Task: scanTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
