// Package wire defines the coordinator service spoken between the
// coordinator and its workers. Messages travel as protobuf Struct values so
// both sides share one schema without generated code.
package wire

type RegistrationStatus string

const (
	RegistrationStatusSuccess    RegistrationStatus = "SUCCESS"
	RegistrationStatusBadRequest RegistrationStatus = "BAD_REQUEST"
	RegistrationStatusRejected   RegistrationStatus = "REJECTED"
	RegistrationStatusFailed     RegistrationStatus = "FAILED"
)

type RegisterWorkerRequest struct {
	WorkerID             string `json:"worker_id"`
	Address              string `json:"address"`
	AvailableCPUCores    uint32 `json:"available_cpu_cores"`
	AvailableMemoryBytes uint64 `json:"available_memory_bytes,string"`
}

type RegisterWorkerResponse struct {
	Status                   RegistrationStatus `json:"status"`
	Message                  string             `json:"message"`
	HeartbeatIntervalSeconds uint32             `json:"heartbeat_interval_seconds"`
}

type HeartbeatRequest struct {
	WorkerID string `json:"worker_id"`
}

type HeartbeatResponse struct {
	Acknowledged bool `json:"acknowledged"`
}

type PullTaskRequest struct {
	WorkerID string `json:"worker_id"`
}

// TaskAssignment hands one partition to a worker. Checksum is the murmur3
// fingerprint of Samples computed by the coordinator.
type TaskAssignment struct {
	TaskID    string    `json:"task_id"`
	JobID     string    `json:"job_id"`
	Partition int       `json:"partition"`
	Name      string    `json:"name"`
	Samples   []float64 `json:"samples"`
	Checksum  uint64    `json:"checksum,string"`
	Attempt   int       `json:"attempt"`
}

type PullTaskResponse struct {
	Task *TaskAssignment `json:"task,omitempty"`
}

type CompleteTaskRequest struct {
	WorkerID string  `json:"worker_id"`
	TaskID   string  `json:"task_id"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// FailTaskRequest reports a task failure. Kind is one of the reduction
// error kinds, or UNKNOWN for anything else.
type FailTaskRequest struct {
	WorkerID string `json:"worker_id"`
	TaskID   string `json:"task_id"`
	Kind     string `json:"kind"`
	Error    string `json:"error"`
}

type TaskAck struct {
	Acknowledged bool   `json:"acknowledged"`
	Message      string `json:"message,omitempty"`
}
