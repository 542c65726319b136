// caja-worker consumes register events from AMQP and exports a day summary
// to the configured backend whenever a register closes.
package main

import (
	"context"
	"os"
	"time"

	"caja/internal/amqp"
	"caja/internal/backend"
	"caja/internal/cli"
	"caja/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting caja-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	result, err := backend.NewSummaryWriter(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize summary backend", "error", err, "backend", cfg.SummaryBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Summary backend cleanup failed", "error", err)
			}
		}()
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	closeWorker := worker.NewCloseWorker(repo, result.Writer)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	go func() {
		err := amqpClient.ConsumeRegisterEvents(ctx, func(msg *amqp.RegisterEventMessage) error {
			return closeWorker.HandleEvent(ctx, msg)
		})
		if err != nil && err != context.Canceled {
			logger.Error("Event consumption failed", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("Worker ready",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"summary_backend", cfg.SummaryBackend)

	cli.WaitForShutdown(ctx, done)
}
