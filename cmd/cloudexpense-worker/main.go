package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"cloudexpense/internal/amqp"
	"cloudexpense/internal/cli"
	"cloudexpense/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting cloudexpense-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	store, closeStore := cli.InitSpendingStore(logger, cfg)
	defer closeStore()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifier := worker.NewNotifyWorker(store)

	logger.Info("Consuming spending events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	if err := amqpClient.ConsumeMessages(ctx, notifier.HandleSaved, notifier.HandleReset); err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
			os.Exit(1)
		}
	}
	logger.Info("Worker shutdown complete")
}
