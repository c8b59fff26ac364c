package main

import (
	"context"
	"errors"
	"os"
	"time"

	"spendlog/internal/amqp"
	"spendlog/internal/cli"
	applog "spendlog/internal/log"
)

const dialAttempts = 10

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentFeed)
	cfg := cli.LoadAndValidateConfig(logger)

	if !cfg.FeedEnabled() {
		logger.Error("AMQP_URL is required for the change feed",
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}

	logger.Info("Starting spendlog-feed", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	dialCtx, cancelDial := context.WithTimeout(context.Background(), 5*time.Minute)
	client, err := amqp.NewClient(dialCtx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, dialAttempts,
		logger.WithComponent(applog.ComponentAMQP))
	cancelDial()
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err.Error())
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, func() {
		_ = client.Close()
	})

	err = client.ConsumeChanges(ctx, func(ctx context.Context, msg *amqp.ChangeMessage) error {
		logger.InfoContext(ctx, "Expense collection changed",
			applog.FieldOperation, msg.Op,
			applog.FieldIndex, msg.Index,
			applog.FieldCount, msg.Count,
			"total", msg.Total.String(),
			"at", msg.Timestamp.Format(time.RFC3339))
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Change feed stopped", applog.FieldError, err.Error(), applog.FieldOperation, applog.OpConsume)
		_ = client.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Change feed stopped gracefully")
}
