package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splithub/internal/config"
	"github.com/mmynk/splithub/internal/events"
	"github.com/mmynk/splithub/internal/jobs"
	"github.com/mmynk/splithub/internal/storage/sqlite"
	"github.com/mmynk/splithub/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("Worker failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Worker stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()

	scheduler, err := jobs.NewScheduler(ctx, jobs.NewRunner(store), cfg.PurgeSchedule, cfg.SubscriptionSchedule)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	if cfg.AMQPURL != "" {
		amqpClient, err := events.NewAMQPClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("initialize AMQP client: %w", err)
		}
		defer amqpClient.Close()

		recorder := events.NewRecorder(store)
		g.Go(func() error {
			err := amqpClient.Consume(gctx, recorder.Handle)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		slog.Info("AMQP_URL not set; only scheduled jobs will run")
	}

	slog.Info("Worker started",
		"purge_schedule", cfg.PurgeSchedule,
		"subscription_schedule", cfg.SubscriptionSchedule)
	return g.Wait()
}
