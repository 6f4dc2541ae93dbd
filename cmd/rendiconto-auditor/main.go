package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"rendiconto/internal/amqp"
	"rendiconto/internal/config"
	applog "rendiconto/internal/log"
)

// The auditor tails the export queue and writes one structured log line per
// completed export, giving operators an audit trail without touching the
// main service.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: applog.ComponentAMQP,
	})
	applog.SetDefault(logger)

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is not set, nothing to consume")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", "error", err, "exchange", cfg.AMQPExchange)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting export auditor", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	err = client.ConsumeExportCompleted(ctx, func(msg *amqp.ExportCompletedMessage) error {
		fields := applog.NewFields().
			WithExport(msg.Format, msg.Period, msg.UserID, msg.Bytes).
			WithOperation(applog.OpPublish)
		logger.InfoContext(ctx, "Export completed", fields.ToSlice()...)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", "error", err)
		os.Exit(1)
	}

	logger.Info("Auditor stopped gracefully")
}
