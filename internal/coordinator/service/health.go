package service

import (
	"context"
	"time"

	"github.com/nemanja-m/lapreduce/internal/coordinator/core"
	"github.com/nemanja-m/lapreduce/internal/shared/logging"
)

// WorkerHealthChecker evicts workers that stopped sending heartbeats and
// puts their in-flight partitions back on the queue.
type WorkerHealthChecker struct {
	checkInterval time.Duration
	staleTimeout  time.Duration
	workerService core.WorkerService
	jobService    core.JobService
	logger        logging.Logger
}

func NewWorkerHealthChecker(
	checkInterval time.Duration,
	staleTimeout time.Duration,
	workerService core.WorkerService,
	jobService core.JobService,
	logger logging.Logger,
) *WorkerHealthChecker {
	return &WorkerHealthChecker{
		checkInterval: checkInterval,
		staleTimeout:  staleTimeout,
		workerService: workerService,
		jobService:    jobService,
		logger:        logger,
	}
}

func (h *WorkerHealthChecker) Start(ctx context.Context) {
	ticker := time.NewTicker(h.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.removeStaleWorkers()
		}
	}
}

func (h *WorkerHealthChecker) removeStaleWorkers() {
	staleWorkers, err := h.workerService.GetStaleWorkers(h.staleTimeout)
	if err != nil {
		h.logger.Error("Failed to get stale workers", "error", err)
		return
	}
	for _, worker := range staleWorkers {
		h.logger.Info(
			"Removing stale worker",
			"worker_id", worker.ID,
			"address", worker.Address,
			"last_heartbeat_at", worker.LastHeartbeatAt,
		)

		if err := h.jobService.RequeueWorkerTasks(worker.ID); err != nil {
			h.logger.Error("Failed to requeue worker tasks", "worker_id", worker.ID, "error", err)
		}

		if err := h.workerService.RemoveWorker(worker.ID); err != nil {
			h.logger.Error("Failed to remove stale worker", "worker_id", worker.ID, "error", err)
		}
	}
}
