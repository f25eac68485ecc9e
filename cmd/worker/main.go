package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/nemanja-m/lapreduce/internal/shared/config"
	"github.com/nemanja-m/lapreduce/internal/shared/logging"
	"github.com/nemanja-m/lapreduce/internal/worker/api/grpc"
	"github.com/nemanja-m/lapreduce/internal/worker/core"
	"github.com/nemanja-m/lapreduce/internal/worker/service"
)

// fallbackHeartbeat is used when the coordinator does not announce an
// interval.
const fallbackHeartbeat = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.LoadWorker(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	workerID := uuid.New()

	client, err := grpc.NewCoordinatorClient(cfg.Coordinator.Addr, cfg.Coordinator.GRPC, workerID)
	if err != nil {
		logger.Fatal("Failed to create coordinator client", "error", err)
	}
	defer client.Close()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	registration := core.Registration{
		Address:     cfg.Server.Addr,
		CPUCores:    uint32(runtime.NumCPU()),
		MemoryBytes: memStats.Sys,
	}

	executor := service.NewExtremaExecutor()
	workerService := service.NewWorkerService(client, executor, registration, fallbackHeartbeat, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Worker started",
		"worker_id", workerID.String(),
		"coordinator", cfg.Coordinator.Addr,
		"cpu_cores", registration.CPUCores,
		"memory_bytes", registration.MemoryBytes,
	)

	if err := workerService.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
	}

	logger.Info("Shutting down worker", "worker_id", workerID.String())
}
