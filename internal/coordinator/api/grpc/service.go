package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nemanja-m/lapreduce/internal/coordinator/core"
	"github.com/nemanja-m/lapreduce/internal/shared/logging"
	"github.com/nemanja-m/lapreduce/internal/shared/wire"
	lapcore "github.com/nemanja-m/lapreduce/pkg/core"
)

const (
	DefaultHeartbeatIntervalSeconds = 15
)

type CoordinatorService struct {
	heartbeatInterval time.Duration
	workerService     core.WorkerService
	jobService        core.JobService

	logger logging.Logger
}

func NewCoordinatorService(
	heartbeatInterval time.Duration,
	workerService core.WorkerService,
	jobService core.JobService,
	logger logging.Logger,
) *CoordinatorService {
	return &CoordinatorService{
		heartbeatInterval: heartbeatInterval,
		workerService:     workerService,
		jobService:        jobService,
		logger:            logger,
	}
}

func (s *CoordinatorService) RegisterWorker(
	ctx context.Context,
	req *wire.RegisterWorkerRequest,
) (*wire.RegisterWorkerResponse, error) {
	workerID, err := uuid.Parse(req.WorkerID)
	if err != nil {
		s.logger.Error("Invalid worker ID format", "worker_id", req.WorkerID, "error", err)
		return &wire.RegisterWorkerResponse{
			Status:  wire.RegistrationStatusBadRequest,
			Message: "Invalid worker ID format. Expected UUID.",
		}, nil
	}
	worker := &core.Worker{
		ID:          workerID,
		Address:     req.Address,
		CPUCores:    req.AvailableCPUCores,
		MemoryBytes: req.AvailableMemoryBytes,
	}

	s.logger.Debug("Received worker registration", "worker_id", worker.ID.String(), "address", worker.Address)

	if err := s.workerService.RegisterWorker(worker); err != nil {
		s.logger.Error("Failed to register worker", "worker_id", worker.ID.String(), "error", err)
		return &wire.RegisterWorkerResponse{
			Status:  wire.RegistrationStatusFailed,
			Message: err.Error(),
		}, nil
	}

	s.logger.Info("Worker registered successfully", "worker_id", worker.ID.String())

	return &wire.RegisterWorkerResponse{
		Status:                   wire.RegistrationStatusSuccess,
		Message:                  "OK",
		HeartbeatIntervalSeconds: s.heartbeatIntervalSeconds(),
	}, nil
}

func (s *CoordinatorService) heartbeatIntervalSeconds() uint32 {
	secs := uint32(s.heartbeatInterval / time.Second)
	if secs == 0 {
		return DefaultHeartbeatIntervalSeconds
	}
	return secs
}

func (s *CoordinatorService) Heartbeat(
	ctx context.Context,
	req *wire.HeartbeatRequest,
) (*wire.HeartbeatResponse, error) {
	workerID, err := uuid.Parse(req.WorkerID)
	if err != nil {
		s.logger.Error("Invalid worker ID in heartbeat", "worker_id", req.WorkerID, "error", err)
		return &wire.HeartbeatResponse{Acknowledged: false}, nil
	}

	if err := s.workerService.RecordHeartbeat(workerID); err != nil {
		s.logger.Error("Failed to record heartbeat", "worker_id", workerID, "error", err)
		return &wire.HeartbeatResponse{Acknowledged: false}, nil
	}

	s.logger.Debug("Heartbeat received", "worker_id", workerID)
	return &wire.HeartbeatResponse{Acknowledged: true}, nil
}

func (s *CoordinatorService) PullTask(
	ctx context.Context,
	req *wire.PullTaskRequest,
) (*wire.PullTaskResponse, error) {
	workerID, err := uuid.Parse(req.WorkerID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid worker ID %q", req.WorkerID)
	}

	task, err := s.jobService.AssignTask(workerID)
	if err != nil {
		s.logger.Error("Failed to assign task", "worker_id", workerID, "error", err)
		return nil, status.Error(codes.Internal, err.Error())
	}
	if task == nil {
		return &wire.PullTaskResponse{}, nil
	}

	return &wire.PullTaskResponse{
		Task: &wire.TaskAssignment{
			TaskID:    task.ID.String(),
			JobID:     task.JobID.String(),
			Partition: task.Partition.Index,
			Name:      task.Partition.Name,
			Samples:   task.Partition.Samples,
			Checksum:  task.Checksum,
			Attempt:   task.Attempt,
		},
	}, nil
}

func (s *CoordinatorService) CompleteTask(
	ctx context.Context,
	req *wire.CompleteTaskRequest,
) (*wire.TaskAck, error) {
	workerID, taskID, err := parseTaskRef(req.WorkerID, req.TaskID)
	if err != nil {
		return nil, err
	}

	extrema := lapcore.LocalExtrema{Min: req.Min, Max: req.Max}
	return s.ack(s.jobService.CompleteTask(taskID, workerID, extrema), "complete", taskID)
}

func (s *CoordinatorService) FailTask(
	ctx context.Context,
	req *wire.FailTaskRequest,
) (*wire.TaskAck, error) {
	workerID, taskID, err := parseTaskRef(req.WorkerID, req.TaskID)
	if err != nil {
		return nil, err
	}

	kind := req.Kind
	if kind == "" {
		kind = lapcore.KindUnknown
	}
	return s.ack(s.jobService.FailTask(taskID, workerID, kind, req.Error), "fail", taskID)
}

// ack turns a task outcome into a response. Results for tasks the worker no
// longer owns are refused without failing the call.
func (s *CoordinatorService) ack(err error, op string, taskID uuid.UUID) (*wire.TaskAck, error) {
	switch {
	case err == nil:
		return &wire.TaskAck{Acknowledged: true}, nil
	case errors.Is(err, core.ErrTaskNotFound), errors.Is(err, core.ErrTaskNotAssigned):
		s.logger.Warn("Refused task result", "op", op, "task_id", taskID, "reason", err)
		return &wire.TaskAck{Acknowledged: false, Message: err.Error()}, nil
	default:
		s.logger.Error("Failed to record task result", "op", op, "task_id", taskID, "error", err)
		return nil, status.Error(codes.Internal, err.Error())
	}
}

func parseTaskRef(worker, task string) (uuid.UUID, uuid.UUID, error) {
	workerID, err := uuid.Parse(worker)
	if err != nil {
		return uuid.Nil, uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid worker ID %q", worker)
	}
	taskID, err := uuid.Parse(task)
	if err != nil {
		return uuid.Nil, uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid task ID %q", task)
	}
	return workerID, taskID, nil
}
