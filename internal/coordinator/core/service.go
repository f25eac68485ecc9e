package core

import (
	"errors"
	"time"

	"github.com/google/uuid"

	lapcore "github.com/nemanja-m/lapreduce/pkg/core"
)

var (
	ErrInvalidJob      = errors.New("invalid job")
	ErrJobNotFound     = errors.New("job not found")
	ErrTaskNotFound    = errors.New("task not found")
	ErrTaskNotAssigned = errors.New("task is not assigned to this worker")
	ErrWorkerNotFound  = errors.New("worker not found")
)

// JobService runs jobs and hands their partitions to workers.
type JobService interface {
	SubmitJob(job *Job) error
	GetJob(id uuid.UUID) (*Job, error)
	GetJobs(filter JobFilter) ([]*Job, int, error)
	GetTasks(jobID uuid.UUID) ([]*Task, error)

	// AssignTask returns the next queued task for the worker, or nil when
	// there is nothing to do.
	AssignTask(workerID uuid.UUID) (*Task, error)
	CompleteTask(taskID uuid.UUID, workerID uuid.UUID, extrema lapcore.LocalExtrema) error
	FailTask(taskID uuid.UUID, workerID uuid.UUID, kind string, errMsg string) error
	RequeueWorkerTasks(workerID uuid.UUID) error
}

// WorkerService tracks registered workers and their liveness.
type WorkerService interface {
	RegisterWorker(worker *Worker) error
	RecordHeartbeat(workerID uuid.UUID) error
	RemoveWorker(workerID uuid.UUID) error
	GetStaleWorkers(timeout time.Duration) ([]*Worker, error)
	GetWorkers() ([]*Worker, error)
}
