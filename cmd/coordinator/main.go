package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nemanja-m/lapreduce/internal/coordinator/api/grpc"
	"github.com/nemanja-m/lapreduce/internal/coordinator/api/rest"
	"github.com/nemanja-m/lapreduce/internal/coordinator/service"
	"github.com/nemanja-m/lapreduce/internal/coordinator/storage"
	"github.com/nemanja-m/lapreduce/internal/shared/config"
	"github.com/nemanja-m/lapreduce/internal/shared/logging"
	"github.com/nemanja-m/lapreduce/pkg/tracer"

	_ "github.com/nemanja-m/lapreduce/examples/f1"
	_ "github.com/nemanja-m/lapreduce/examples/synthetic"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.LoadCoordinator(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Tracing.Endpoint != "" {
		shutdown, err := tracer.Init(ctx, cfg.Tracing.Endpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracing", "error", err)
		}
		defer func() {
			flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer flushCancel()
			if err := shutdown(flushCtx); err != nil {
				logger.Error("Failed to flush traces", "error", err)
			}
		}()
		logger.Info("Tracing enabled", "endpoint", cfg.Tracing.Endpoint)
	}

	jobStore := storage.NewInMemoryJobStore()
	workerStore := storage.NewInMemoryWorkerStore()

	jobService := service.NewJobService(ctx, jobStore, service.JobServiceConfig{
		CollectTimeout: cfg.Jobs.CollectTimeout,
		MaxAttempts:    cfg.Jobs.MaxAttempts,
	}, logger)
	workerService := service.NewWorkerService(workerStore, logger)

	healthChecker := service.NewWorkerHealthChecker(
		cfg.Health.CheckInterval,
		cfg.Health.StaleTimeout,
		workerService,
		jobService,
		logger,
	)
	go healthChecker.Start(ctx)

	grpcServer := grpc.NewServer(cfg.GRPC, workerService, jobService, logger)
	go func() {
		logger.Info("Starting gRPC server", "addr", cfg.GRPC.Addr)
		if err := grpcServer.Start(); err != nil {
			logger.Fatal("gRPC server error", "error", err)
		}
	}()

	restServer := rest.NewServer(cfg.REST, jobService, workerService, logger)
	go func() {
		logger.Info("Starting REST API server", "addr", cfg.REST.Addr)
		if err := restServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("REST server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down coordinator")
	cancel()

	// Give servers 30 seconds to finish serving ongoing requests
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("REST server forced to shutdown", "error", err)
	}
	grpcServer.Stop()

	logger.Info("Coordinator stopped")
}
