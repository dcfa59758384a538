package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"moneta/internal/config"
	"moneta/internal/events"
	applog "moneta/internal/log"
	"moneta/internal/prefs"
)

// moneta-worker consumes mutation events from the bus and records them into
// the local activity log.
func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     applog.DefaultConfig().Level,
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting moneta-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	prefsStore, err := prefs.Open(cfg.PrefsDBPath)
	if err != nil {
		logger.Error("Failed to open preferences database", "error", err, "path", cfg.PrefsDBPath)
		os.Exit(1)
	}
	defer prefsStore.Close()

	eventsClient, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize event bus client", "error", err)
		os.Exit(1)
	}
	defer eventsClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		handler := func(ev *events.EntityEvent) error {
			if err := prefsStore.RecordActivity(ctx, *ev); err != nil {
				logger.Error("Failed to record activity",
					"error", err, "entity", ev.Entity, "entity_id", ev.ID, "op", ev.Op)
				return err
			}
			logger.Debug("Activity recorded",
				"entity", ev.Entity, "entity_id", ev.ID, "op", ev.Op, "owner_id", ev.OwnerID)
			return nil
		}
		if err := eventsClient.ConsumeEntityEvents(ctx, handler); err != nil {
			if err != context.Canceled {
				logger.Error("Event consumption failed", "error", err)
			}
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	case <-ctx.Done():
	}

	logger.Info("Worker stopped gracefully")
}
