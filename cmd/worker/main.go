package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/finance-insights/internal/app"
	"github.com/dvloznov/finance-insights/internal/config"
	"github.com/dvloznov/finance-insights/internal/jobs"
	"github.com/dvloznov/finance-insights/internal/jobs/inmemory"
	"github.com/dvloznov/finance-insights/internal/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv("FINSIGHT_CONFIG"), "Path to YAML config (or set FINSIGHT_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewFromConfig(cfg.Log)

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	application, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	if len(cfg.Worker.Users) == 0 {
		log.Warn().Msg("No users configured (worker.users / FINSIGHT_WORKER_USERS) - only pruning will run")
	}

	jobQueue := inmemory.NewQueue(inmemory.QueueConfig{
		BufferSize: cfg.Worker.QueueSize,
		Workers:    cfg.Worker.Concurrency,
		MaxRetries: cfg.Worker.MaxRetries,
	}, inmemory.NewStore(), log)

	if err := jobQueue.Start(ctx, app.GenerationHandler(application.Service, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	scheduler := &jobs.Scheduler{
		Publisher:     jobQueue,
		Pruner:        application.Service,
		Users:         cfg.Worker.Users,
		Interval:      cfg.Worker.Interval,
		PruneInterval: cfg.Worker.PruneInterval,
		Log:           log,
	}
	go scheduler.Run(ctx)

	log.Info().
		Int("users", len(cfg.Worker.Users)).
		Dur("interval", cfg.Worker.Interval).
		Dur("prune_interval", cfg.Worker.PruneInterval).
		Msg("Worker service started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}
	cancel()

	log.Info().Msg("Worker service exited")
}
