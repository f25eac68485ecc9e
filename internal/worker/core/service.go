package core

import (
	"context"
	"errors"
	"time"

	"github.com/nemanja-m/lapreduce/internal/shared/wire"
	lapcore "github.com/nemanja-m/lapreduce/pkg/core"
)

// ErrNotRegistered is returned when the coordinator no longer knows the
// worker, typically after the health checker evicted it.
var ErrNotRegistered = errors.New("worker is not registered with the coordinator")

// Registration describes the worker to the coordinator.
type Registration struct {
	Address     string
	CPUCores    uint32
	MemoryBytes uint64
}

type CoordinatorClient interface {
	RegisterWorker(ctx context.Context, reg Registration) (time.Duration, error)
	SendHeartbeat(ctx context.Context) error
	PullTask(ctx context.Context) (*wire.TaskAssignment, error)
	CompleteTask(ctx context.Context, taskID string, extrema lapcore.LocalExtrema) error
	FailTask(ctx context.Context, taskID string, kind string, errMsg string) error
	Close() error
}

type WorkerService interface {
	Run(ctx context.Context) error
}

type TaskExecutor interface {
	Execute(ctx context.Context, task *wire.TaskAssignment) (lapcore.LocalExtrema, error)
}
