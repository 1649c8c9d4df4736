package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/kencana-erp/kencana/internal/accounting/accounts"
	"github.com/kencana-erp/kencana/internal/accounting/journals"
	"github.com/kencana-erp/kencana/internal/accounting/periods"
	"github.com/kencana-erp/kencana/internal/accounting/snapshots"
	"github.com/kencana-erp/kencana/internal/app"
	"github.com/kencana-erp/kencana/internal/platform/cache"
	"github.com/kencana-erp/kencana/internal/platform/db"
	"github.com/kencana-erp/kencana/internal/recon"
	"github.com/kencana-erp/kencana/jobs"
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

	caps, err := db.ProbeCapabilities(ctx, pool)
	if err != nil {
		logger.Error("probe schema capabilities", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	periodService := periods.NewService(periods.NewRepository(pool))
	reconService := recon.NewService(
		periodService,
		journals.NewRepository(pool, caps),
		snapshots.NewRepository(pool, caps),
		accounts.NewRepository(pool, caps),
		cfg.ReconPolicy(),
		logger,
	)
	reconCache := recon.NewCache(redisClient, cfg.ReconCacheTTL)
	warmupJob := jobs.NewReconWarmupJob(reconService, reconCache, logger, nil)

	warmupTask, err := jobs.NewReconWarmupTask(jobs.ReconWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReconWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ReconWarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	// Re-warm the cache whenever a ledger change bumps the report version.
	go func() {
		err := reconCache.Listen(ctx, func(version string) {
			logger.Info("cache version bumped", slog.String("version", version))
			if _, err := client.EnqueueReconWarmup(ctx, jobs.ReconWarmupPayload{}); err != nil {
				logger.Warn("enqueue warmup after bump", slog.Any("error", err))
			}
		})
		if err != nil && err != context.Canceled {
			logger.Warn("bump listener stopped", slog.Any("error", err))
		}
	}()

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
