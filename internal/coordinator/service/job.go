package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nemanja-m/lapreduce/internal/coordinator/core"
	"github.com/nemanja-m/lapreduce/internal/shared/logging"
	lapcore "github.com/nemanja-m/lapreduce/pkg/core"
	"github.com/nemanja-m/lapreduce/pkg/probe"
)

type JobServiceConfig struct {
	// CollectTimeout bounds how long a job waits for all partitions.
	CollectTimeout time.Duration
	// MaxAttempts is how many times a partition is handed out before the
	// job fails. Empty partitions are never retried.
	MaxAttempts int
}

type jobService struct {
	ctx      context.Context
	jobStore core.JobStore
	queue    core.TaskPriorityQueue
	config   JobServiceConfig

	mu      sync.Mutex
	running map[uuid.UUID]*dispatchTransport

	logger logging.Logger
}

// NewJobService returns a job service whose jobs run until they finish or
// ctx is cancelled.
func NewJobService(ctx context.Context, jobStore core.JobStore, config JobServiceConfig, logger logging.Logger) core.JobService {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	return &jobService{
		ctx:      ctx,
		jobStore: jobStore,
		queue:    core.NewTaskPriorityQueue(),
		config:   config,
		running:  make(map[uuid.UUID]*dispatchTransport),
		logger:   logger,
	}
}

func (s *jobService) SubmitJob(job *core.Job) error {
	p := job.Partitioning
	partitioner, err := lapcore.ParsePolicy(p.Mode, p.Workers, p.Remainder)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidJob, err)
	}

	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now().UTC()
	}
	job.Status = core.JobStatusPending
	job.State = lapcore.StateInitialized

	if err := s.jobStore.SaveJob(job); err != nil {
		return err
	}

	transport := newDispatchTransport(job.ID, s)
	s.mu.Lock()
	s.running[job.ID] = transport
	s.mu.Unlock()

	s.logger.Info(
		"Job submitted",
		"job_id", job.ID.String(),
		"name", job.Name,
		"samples", job.Dataset.Len(),
		"mode", p.Mode,
	)

	go s.run(job.ID, job.Dataset, partitioner, transport)
	return nil
}

func (s *jobService) run(jobID uuid.UUID, ds lapcore.Dataset, partitioner lapcore.Partitioner, transport *dispatchTransport) {
	s.updateJob(jobID, func(job *core.Job) {
		job.Status = core.JobStatusRunning
		job.StartedAt = ptrTimeNow()
	})

	reducer := lapcore.NewReducer(
		partitioner,
		transport,
		lapcore.WithLogger(s.logger),
		lapcore.WithMemoryProbe(probe.Memory{}),
		lapcore.WithCollectTimeout(s.config.CollectTimeout),
		lapcore.WithSink(&jobSink{jobID: jobID, service: s}),
		lapcore.WithStateHook(func(state lapcore.State) {
			s.updateJob(jobID, func(job *core.Job) { job.State = state })
		}),
	)

	rep, err := reducer.Run(s.ctx, ds)
	if err != nil {
		s.logger.Warn("Job failed", "job_id", jobID.String(), "kind", lapcore.KindOf(err), "error", err)
		return
	}
	s.logger.Info(
		"Job completed",
		"job_id", jobID.String(),
		"min", rep.Extrema.Min,
		"max", rep.Extrema.Max,
		"elapsed", rep.Elapsed,
	)
}

// finish stops accepting results for the job and cancels its outstanding
// tasks.
func (s *jobService) finish(jobID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.running, jobID)
	s.queue.RemoveJob(jobID)

	tasks, err := s.jobStore.GetTasksByJobID(jobID)
	if err != nil {
		s.logger.Error("Failed to load tasks of finished job", "job_id", jobID.String(), "error", err)
		return
	}
	for _, task := range tasks {
		if task.Status != core.TaskStatusPending && task.Status != core.TaskStatusRunning {
			continue
		}
		task.Status = core.TaskStatusCancelled
		task.EndedAt = ptrTimeNow()
		if err := s.jobStore.UpdateTask(task); err != nil {
			s.logger.Error("Failed to cancel task", "task_id", task.ID.String(), "error", err)
		}
	}
}

func (s *jobService) updateJob(jobID uuid.UUID, fn func(job *core.Job)) {
	job, err := s.jobStore.GetJobByID(jobID)
	if err != nil || job == nil {
		s.logger.Error("Failed to load job", "job_id", jobID.String(), "error", err)
		return
	}
	fn(job)
	if err := s.jobStore.UpdateJob(job); err != nil {
		s.logger.Error("Failed to update job", "job_id", jobID.String(), "error", err)
	}
}

// enqueue stores freshly scattered tasks and makes them available to workers.
func (s *jobService) enqueue(tasks []*core.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.jobStore.SaveTasks(tasks...); err != nil {
		return err
	}
	for _, task := range tasks {
		if err := s.queue.Push(task, core.TaskPriorityNormal); err != nil {
			return err
		}
	}
	return nil
}

func (s *jobService) GetJob(id uuid.UUID) (*core.Job, error) {
	job, err := s.jobStore.GetJobByID(id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, core.ErrJobNotFound
	}
	return job, s.fillProgress(job)
}

func (s *jobService) GetJobs(filter core.JobFilter) ([]*core.Job, int, error) {
	jobs, total, err := s.jobStore.GetJobs(filter)
	if err != nil {
		return nil, 0, err
	}
	for _, job := range jobs {
		if err := s.fillProgress(job); err != nil {
			return nil, 0, err
		}
	}
	return jobs, total, nil
}

func (s *jobService) fillProgress(job *core.Job) error {
	tasks, err := s.jobStore.GetTasksByJobID(job.ID)
	if err != nil {
		return err
	}
	job.Progress = core.Progress(tasks)
	return nil
}

func (s *jobService) GetTasks(jobID uuid.UUID) ([]*core.Task, error) {
	job, err := s.jobStore.GetJobByID(jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, core.ErrJobNotFound
	}
	return s.jobStore.GetTasksByJobID(jobID)
}

func (s *jobService) AssignTask(workerID uuid.UUID) (*core.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		queued, err := s.queue.Pop()
		if errors.Is(err, core.ErrQueueEmpty) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if _, ok := s.running[queued.JobID]; !ok {
			continue
		}

		task, err := s.jobStore.GetTaskByID(queued.ID)
		if err != nil {
			return nil, err
		}
		if task == nil || task.Status != core.TaskStatusPending {
			continue
		}

		task.Status = core.TaskStatusRunning
		task.WorkerID = &workerID
		task.StartedAt = ptrTimeNow()
		task.EndedAt = nil
		if err := s.jobStore.UpdateTask(task); err != nil {
			return nil, err
		}

		s.logger.Debug(
			"Task assigned",
			"task_id", task.ID.String(),
			"job_id", task.JobID.String(),
			"partition", task.Partition.Index,
			"attempt", task.Attempt,
			"worker_id", workerID.String(),
		)
		return task, nil
	}
}

func (s *jobService) CompleteTask(taskID uuid.UUID, workerID uuid.UUID, extrema lapcore.LocalExtrema) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.assignedTask(taskID, workerID)
	if err != nil {
		return err
	}

	task.Status = core.TaskStatusCompleted
	task.Result = &extrema
	task.Error = nil
	task.EndedAt = ptrTimeNow()
	if err := s.jobStore.UpdateTask(task); err != nil {
		return err
	}

	s.logger.Debug("Task completed", "task_id", taskID.String(), "partition", task.Partition.Index)
	s.deliver(task, lapcore.LocalResult{Partition: task.Partition.Index, Extrema: extrema})
	return nil
}

func (s *jobService) FailTask(taskID uuid.UUID, workerID uuid.UUID, kind string, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.assignedTask(taskID, workerID)
	if err != nil {
		return err
	}

	s.logger.Warn(
		"Task failed",
		"task_id", taskID.String(),
		"partition", task.Partition.Index,
		"attempt", task.Attempt,
		"kind", kind,
		"error", errMsg,
	)

	if kind == lapcore.KindEmptyPartition || task.Attempt >= s.config.MaxAttempts {
		return s.abandon(task, lapcore.ErrorFromKind(kind, task.Partition.Index, errMsg))
	}
	return s.retry(task, errMsg)
}

// RequeueWorkerTasks hands the running tasks of a lost worker to other
// workers, failing partitions that ran out of attempts.
func (s *jobService) RequeueWorkerTasks(workerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.jobStore.GetRunningTasksByWorkerID(workerID)
	if err != nil {
		return err
	}

	for _, task := range tasks {
		msg := fmt.Sprintf("worker %s lost", workerID)
		if task.Attempt >= s.config.MaxAttempts {
			err = s.abandon(task, lapcore.NewReduceError(lapcore.ErrIncompleteCollection, task.Partition.Index, "%s after %d attempts", msg, task.Attempt))
		} else {
			err = s.retry(task, msg)
		}
		if err != nil {
			return err
		}
		s.logger.Info("Requeued task of lost worker", "task_id", task.ID.String(), "worker_id", workerID.String())
	}
	return nil
}

func (s *jobService) assignedTask(taskID uuid.UUID, workerID uuid.UUID) (*core.Task, error) {
	task, err := s.jobStore.GetTaskByID(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, core.ErrTaskNotFound
	}
	if task.Status != core.TaskStatusRunning || task.WorkerID == nil || *task.WorkerID != workerID {
		return nil, core.ErrTaskNotAssigned
	}
	return task, nil
}

func (s *jobService) retry(task *core.Task, errMsg string) error {
	task.Status = core.TaskStatusPending
	task.WorkerID = nil
	task.StartedAt = nil
	task.EndedAt = nil
	task.Error = &errMsg
	task.Attempt++
	if err := s.jobStore.UpdateTask(task); err != nil {
		return err
	}
	return s.queue.Push(task, core.TaskPriorityRetry)
}

func (s *jobService) abandon(task *core.Task, cause error) error {
	msg := cause.Error()
	task.Status = core.TaskStatusFailed
	task.Error = &msg
	task.EndedAt = ptrTimeNow()
	if err := s.jobStore.UpdateTask(task); err != nil {
		return err
	}
	s.deliver(task, lapcore.LocalResult{Partition: task.Partition.Index, Err: cause})
	return nil
}

func (s *jobService) deliver(task *core.Task, res lapcore.LocalResult) {
	transport, ok := s.running[task.JobID]
	if !ok {
		return
	}
	if !transport.deliver(res) {
		s.logger.Warn("Dropped duplicate result", "task_id", task.ID.String(), "partition", res.Partition)
	}
}

// jobSink records the reducer's outcome on the job. Outstanding tasks are
// cancelled before the job is marked finished.
type jobSink struct {
	jobID   uuid.UUID
	service *jobService
}

func (s *jobSink) Report(rep lapcore.Report) error {
	s.service.finish(s.jobID)
	s.service.updateJob(s.jobID, func(job *core.Job) {
		job.Status = core.JobStatusCompleted
		job.State = lapcore.StateReported
		job.CompletedAt = ptrTimeNow()
		job.Result = &core.JobResult{
			Min:        rep.Extrema.Min,
			Max:        rep.Extrema.Max,
			Samples:    rep.Samples,
			Partitions: len(rep.Partitions),
			Checksum:   rep.Checksum,
			Elapsed:    rep.Elapsed,
		}
	})
	return nil
}

func (s *jobSink) Fail(err error) error {
	partition, _ := lapcore.PartitionOf(err)
	s.service.finish(s.jobID)
	s.service.updateJob(s.jobID, func(job *core.Job) {
		job.Status = core.JobStatusFailed
		job.State = lapcore.StateFailed
		job.CompletedAt = ptrTimeNow()
		job.Error = &core.JobError{
			Kind:      lapcore.KindOf(err),
			Partition: partition,
			Message:   err.Error(),
			Timestamp: time.Now().UTC(),
		}
	})
	return nil
}

func ptrTimeNow() *time.Time {
	t := time.Now().UTC()
	return &t
}
