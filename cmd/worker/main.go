package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/luminapos/backoffice/internal/app"
	"github.com/luminapos/backoffice/internal/lottery"
	"github.com/luminapos/backoffice/internal/platform/cache"
	"github.com/luminapos/backoffice/internal/platform/db"
	"github.com/luminapos/backoffice/internal/reports"
	"github.com/luminapos/backoffice/internal/shared"
	"github.com/luminapos/backoffice/internal/shifts"
	"github.com/luminapos/backoffice/internal/stores"
	"github.com/luminapos/backoffice/jobs"
)

func main() {
	enqueueSweep := flag.Bool("enqueue-sweep", false, "enqueue one expiry sweep and exit")
	flag.Parse()

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

	if *enqueueSweep {
		client := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() { _ = client.Close() }()
		info, err := client.EnqueueExpirySweep(ctx)
		if err != nil {
			logger.Error("enqueue expiry sweep", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("expiry sweep enqueued", slog.String("task_id", info.ID))
		return
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	lotteryRepo := lottery.NewRepository(pool)
	storeDir := stores.NewDirectory(stores.NewRepository(pool))
	shiftGate := shifts.NewRepository(pool)
	summaryCloser := reports.NewRepository(pool, logger)
	auditLogger := shared.NewAuditLogger(pool)

	lotteryService := lottery.NewService(lotteryRepo, storeDir, shiftGate, summaryCloser, auditLogger, logger, lottery.ServiceConfig{
		PendingCloseTTL: cfg.LotteryPendingCloseTTL,
		PrepareTimeout:  cfg.LotteryPrepareTimeout,
		CommitTimeout:   cfg.LotteryCommitTimeout,
	})
	sweepJob := lottery.NewSweepJob(lotteryService, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLotteryExpirySweep, Handler: sweepJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.LotterySweepCron, Task: jobs.NewLotteryExpirySweepTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
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
