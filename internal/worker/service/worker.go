package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nemanja-m/lapreduce/internal/shared/logging"
	"github.com/nemanja-m/lapreduce/internal/worker/core"
	lapcore "github.com/nemanja-m/lapreduce/pkg/core"
)

const (
	minBackoff = 100 * time.Millisecond
	maxBackoff = 5 * time.Second
)

type workerService struct {
	client            core.CoordinatorClient
	executor          core.TaskExecutor
	registration      core.Registration
	heartbeatInterval time.Duration
	logger            logging.Logger
}

// NewWorkerService builds a worker that registers with the coordinator and
// then heartbeats and pulls tasks until its context is cancelled.
// heartbeatInterval is used when the coordinator does not announce one.
func NewWorkerService(
	client core.CoordinatorClient,
	executor core.TaskExecutor,
	registration core.Registration,
	heartbeatInterval time.Duration,
	logger logging.Logger,
) core.WorkerService {
	return &workerService{
		client:            client,
		executor:          executor,
		registration:      registration,
		heartbeatInterval: heartbeatInterval,
		logger:            logger,
	}
}

func (w *workerService) Run(ctx context.Context) error {
	interval, err := w.register(ctx)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Go(func() { w.runHeartbeatLoop(ctx, interval) })
	wg.Go(func() { w.runTaskLoop(ctx) })
	wg.Wait()
	return nil
}

// register retries with backoff until the coordinator accepts the worker or
// ctx is done.
func (w *workerService) register(ctx context.Context) (time.Duration, error) {
	backoff := minBackoff
	for {
		interval, err := w.client.RegisterWorker(ctx, w.registration)
		if err == nil {
			if interval <= 0 {
				interval = w.heartbeatInterval
			}
			w.logger.Info("Registered with coordinator", "heartbeat_interval", interval.String())
			return interval, nil
		}

		w.logger.Warn("Failed to register worker", "error", err, "retry_in", backoff.String())
		if !sleep(ctx, backoff) {
			return 0, ctx.Err()
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func (w *workerService) runHeartbeatLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := w.client.SendHeartbeat(ctx)
			switch {
			case err == nil:
				w.logger.Debug("Heartbeat sent successfully")
			case errors.Is(err, core.ErrNotRegistered):
				w.logger.Warn("Coordinator lost track of worker, registering again")
				if _, err := w.register(ctx); err != nil {
					return
				}
			default:
				w.logger.Error("Failed to send heartbeat", "error", err)
			}
		}
	}
}

func (w *workerService) runTaskLoop(ctx context.Context) {
	backoff := minBackoff

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, err := w.client.PullTask(ctx)
		if err != nil {
			w.logger.Error("Failed to pull task", "error", err)
		}
		if err != nil || task == nil {
			if !sleep(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}

		backoff = minBackoff

		w.logger.Info("Received task",
			"task_id", task.TaskID,
			"job_id", task.JobID,
			"partition", task.Partition,
			"samples", len(task.Samples),
			"attempt", task.Attempt,
		)

		extrema, err := w.executor.Execute(ctx, task)

		if err == nil {
			w.logger.Info("Task completed", "task_id", task.TaskID, "min", extrema.Min, "max", extrema.Max)
			if reportErr := w.client.CompleteTask(ctx, task.TaskID, extrema); reportErr != nil {
				w.logger.Error("Failed to report task completion", "task_id", task.TaskID, "error", reportErr)
			}
		} else {
			kind := lapcore.KindOf(err)
			w.logger.Error("Task execution failed", "task_id", task.TaskID, "kind", kind, "error", err)
			if reportErr := w.client.FailTask(ctx, task.TaskID, kind, lapcore.DetailOf(err)); reportErr != nil {
				w.logger.Error("Failed to report task failure", "task_id", task.TaskID, "error", reportErr)
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
