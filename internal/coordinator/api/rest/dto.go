package rest

import (
	"time"
)

type SubmitJobRequest struct {
	Name string `json:"name"`
	// Dataset names a registered dataset. Exactly one of Dataset and Groups
	// must be set.
	Dataset      string             `json:"dataset,omitempty"`
	Groups       []GroupSpec        `json:"groups,omitempty"`
	Partitioning PartitioningConfig `json:"partitioning"`
}

type GroupSpec struct {
	Name    string    `json:"name"`
	Samples []float64 `json:"samples"`
}

type PartitioningConfig struct {
	Mode      string `json:"mode"`                // "even" or "groups"
	Workers   int    `json:"workers,omitempty"`   // even mode only
	Remainder string `json:"remainder,omitempty"` // "reject" or "spread"
}

type SubmitJobResponse struct {
	JobID       string    `json:"job_id"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
	Samples     int       `json:"samples"`
	Links       Links     `json:"links"`
}

type Links struct {
	Self  string `json:"self"`
	Tasks string `json:"tasks,omitempty"`
}

type GetJobResponse struct {
	JobID        string             `json:"job_id"`
	Name         string             `json:"name"`
	Status       string             `json:"status"`
	State        string             `json:"state"`
	Partitioning PartitioningConfig `json:"partitioning"`
	Progress     TaskProgress       `json:"progress"`
	Result       *ResultInfo        `json:"result"`
	Error        *ErrorInfo         `json:"error"`
	Timestamps   TimestampsInfo     `json:"timestamps"`
	DurationMs   int64              `json:"duration_ms"`
}

type TaskProgress struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

type ResultInfo struct {
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Samples    int     `json:"samples"`
	Partitions int     `json:"partitions"`
	Checksum   string  `json:"checksum"`
	ElapsedMs  int64   `json:"elapsed_ms"`
}

type ErrorInfo struct {
	Kind      string    `json:"kind"`
	Partition *int      `json:"partition,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type TimestampsInfo struct {
	Submitted time.Time  `json:"submitted"`
	Started   *time.Time `json:"started"`
	Completed *time.Time `json:"completed"`
}

type ListJobsResponse struct {
	Jobs       []JobSummary `json:"jobs"`
	Total      int          `json:"total"`
	Limit      int          `json:"limit"`
	Offset     int          `json:"offset"`
	NextOffset *int         `json:"next_offset,omitempty"`
}

type JobSummary struct {
	JobID       string     `json:"job_id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	SubmittedAt time.Time  `json:"submitted_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type GetTasksResponse struct {
	Tasks []TaskInfo `json:"tasks"`
}

type TaskInfo struct {
	TaskID    string     `json:"task_id"`
	Partition int        `json:"partition"`
	Name      string     `json:"name"`
	Samples   int        `json:"samples"`
	Status    string     `json:"status"`
	Attempts  int        `json:"attempts"`
	WorkerID  string     `json:"worker_id,omitempty"`
	Min       *float64   `json:"min,omitempty"`
	Max       *float64   `json:"max,omitempty"`
	Error     string     `json:"error,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

type ListWorkersResponse struct {
	Workers []WorkerInfo `json:"workers"`
}

type WorkerInfo struct {
	WorkerID        string    `json:"worker_id"`
	Address         string    `json:"address"`
	CPUCores        uint32    `json:"cpu_cores"`
	MemoryBytes     uint64    `json:"memory_bytes"`
	Status          string    `json:"status"`
	RegisteredAt    time.Time `json:"registered_at"`
	LastHeartbeatAt time.Time `json:"last_heartbeat_at"`
}

type ListDatasetsResponse struct {
	Datasets []string `json:"datasets"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
