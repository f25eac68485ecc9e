package core

import (
	"time"

	"github.com/google/uuid"
)

// JobStore persists jobs and their tasks. Implementations return copies so
// callers never share mutable state with the store.
type JobStore interface {
	SaveJob(job *Job, tasks ...*Task) error
	UpdateJob(job *Job) error
	GetJobByID(id uuid.UUID) (*Job, error)
	GetJobs(filter JobFilter) ([]*Job, int, error)

	SaveTasks(tasks ...*Task) error
	UpdateTask(task *Task) error
	GetTaskByID(id uuid.UUID) (*Task, error)
	GetTasksByJobID(jobID uuid.UUID) ([]*Task, error)
	GetRunningTasksByWorkerID(workerID uuid.UUID) ([]*Task, error)
}

type WorkerStore interface {
	AddWorker(worker *Worker) error
	GetWorkerByID(id uuid.UUID) (*Worker, error)
	GetAllWorkers() ([]*Worker, error)
	UpdateWorkerHeartbeat(id uuid.UUID, timestamp time.Time) error
	RemoveWorker(id uuid.UUID) error
	GetStaleWorkers(threshold time.Time) ([]*Worker, error)
}
