package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"cloudexpense/internal/amqp"
	"cloudexpense/internal/cli"
	apphttp "cloudexpense/internal/http"
	"cloudexpense/internal/objectstore"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	store, closeStore := cli.InitSpendingStore(logger, cfg)
	defer closeStore()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Object store is required for the upload flow but the rest of the API
	// works without it, so a missing bucket only disables those endpoints.
	var objects apphttp.ResultFetcher
	if cfg.GCSBucket != "" {
		osc, err := objectstore.New(ctx, cfg.GCSBucket)
		if err != nil {
			logger.Error("Failed to initialize object store", "error", err, "bucket", cfg.GCSBucket)
			os.Exit(1)
		}
		objects = osc
		logger.Info("Object store initialized", "bucket", cfg.GCSBucket, "prefix", cfg.GCSResultPrefix)
	} else {
		logger.Warn("No bucket configured, receipt upload endpoints disabled")
	}

	var publisher apphttp.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("No AMQP URL configured, spending events disabled")
	}

	srv := apphttp.NewServer(":"+cfg.Port, store, objects, publisher, cfg.GCSResultPrefix)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting cloudexpense server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		logger.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
