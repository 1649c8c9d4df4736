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

	"github.com/kencana-erp/kencana/internal/accounting/accounts"
	"github.com/kencana-erp/kencana/internal/accounting/journals"
	"github.com/kencana-erp/kencana/internal/accounting/periods"
	"github.com/kencana-erp/kencana/internal/accounting/snapshots"
	"github.com/kencana-erp/kencana/internal/app"
	"github.com/kencana-erp/kencana/internal/observability"
	"github.com/kencana-erp/kencana/internal/platform/cache"
	"github.com/kencana-erp/kencana/internal/platform/db"
	"github.com/kencana-erp/kencana/internal/recon"
	reconhttp "github.com/kencana-erp/kencana/internal/recon/http"
	"github.com/kencana-erp/kencana/jobs"
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

	caps, err := db.ProbeCapabilities(ctx, pool)
	if err != nil {
		logger.Error("probe schema capabilities", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("schema capabilities resolved",
		slog.Bool("adjusting_remark", caps.AdjustingRemark),
		slog.Bool("adjusting_posting_date", caps.AdjustingPostingDate),
		slog.Bool("snapshot_signed", caps.SnapshotSigned),
		slog.Bool("snapshot_opening_pair", caps.SnapshotOpeningPair),
		slog.Bool("account_master", caps.AccountMaster),
	)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, report caching disabled", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()

	periodService := periods.NewService(periods.NewRepository(pool))
	ledgerRepo := journals.NewRepository(pool, caps)
	snapshotRepo := snapshots.NewRepository(pool, caps)
	accountRepo := accounts.NewRepository(pool, caps)

	reconService := recon.NewService(periodService, ledgerRepo, snapshotRepo, accountRepo, cfg.ReconPolicy(), logger).
		WithObserver(metrics)
	reconCache := recon.NewCache(redisClient, cfg.ReconCacheTTL)
	reconHandler := reconhttp.NewHandler(logger, reconService, reconCache)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		ReconHandler: reconHandler,
		JobHandler:   jobHandler,
		Metrics:      metrics,
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
