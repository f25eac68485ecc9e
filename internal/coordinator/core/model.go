package core

import (
	"time"

	"github.com/google/uuid"

	lapcore "github.com/nemanja-m/lapreduce/pkg/core"
)

type JobStatus string

const (
	JobStatusPending   JobStatus = "PENDING"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
)

// Job is one distributed min/max reduction over a dataset.
type Job struct {
	ID           uuid.UUID
	Name         string
	Status       JobStatus
	State        lapcore.State
	Partitioning PartitioningSpec
	Dataset      lapcore.Dataset
	Progress     TaskProgress

	Result *JobResult
	Error  *JobError

	SubmittedAt time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// Duration returns how long the job ran, or zero if it has not finished.
func (j *Job) Duration() time.Duration {
	if j.StartedAt == nil || j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(*j.StartedAt)
}

type PartitioningSpec struct {
	Mode      string
	Workers   int
	Remainder string
}

type JobResult struct {
	Min        float64
	Max        float64
	Samples    int
	Partitions int
	Checksum   uint64
	Elapsed    time.Duration
}

type JobError struct {
	Kind      string
	Partition int
	Message   string
	Timestamp time.Time
}

type TaskProgress struct {
	Total     int
	Pending   int
	Running   int
	Completed int
	Failed    int
}

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "PENDING"
	TaskStatusRunning   TaskStatus = "RUNNING"
	TaskStatusCompleted TaskStatus = "COMPLETED"
	TaskStatusFailed    TaskStatus = "FAILED"
	TaskStatusCancelled TaskStatus = "CANCELLED"
)

// Task carries one partition to one worker.
type Task struct {
	ID        uuid.UUID
	JobID     uuid.UUID
	Status    TaskStatus
	Partition lapcore.Partition
	Checksum  uint64
	WorkerID  *uuid.UUID

	StartedAt *time.Time
	EndedAt   *time.Time

	Attempt int
	Result  *lapcore.LocalExtrema
	Error   *string
}

type JobFilter struct {
	Status *JobStatus
	Limit  int
	Offset int
}

type WorkerStatus string

const (
	WorkerStatusActive WorkerStatus = "ACTIVE"
)

type Worker struct {
	ID              uuid.UUID
	Address         string
	CPUCores        uint32
	MemoryBytes     uint64
	Status          WorkerStatus
	RegisteredAt    time.Time
	LastHeartbeatAt time.Time
}

// Progress tallies task statuses. Cancelled tasks count as failed.
func Progress(tasks []*Task) TaskProgress {
	p := TaskProgress{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case TaskStatusPending:
			p.Pending++
		case TaskStatusRunning:
			p.Running++
		case TaskStatusCompleted:
			p.Completed++
		case TaskStatusFailed, TaskStatusCancelled:
			p.Failed++
		}
	}
	return p
}
