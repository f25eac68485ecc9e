package storage

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nemanja-m/lapreduce/internal/coordinator/core"
)

// InMemoryJobStore keeps jobs and tasks in process memory. Values are copied
// on the way in and out; Dataset and Partition samples are shared since
// nothing mutates them.
type InMemoryJobStore struct {
	mu    sync.RWMutex
	order []uuid.UUID
	jobs  map[uuid.UUID]*core.Job
	tasks map[uuid.UUID]*core.Task
	byJob map[uuid.UUID][]uuid.UUID
}

func NewInMemoryJobStore() *InMemoryJobStore {
	return &InMemoryJobStore{
		jobs:  make(map[uuid.UUID]*core.Job),
		tasks: make(map[uuid.UUID]*core.Task),
		byJob: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (s *InMemoryJobStore) SaveJob(job *core.Job, tasks ...*core.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	s.jobs[job.ID] = copyJob(job)
	s.order = append(s.order, job.ID)
	s.saveTasks(tasks)
	return nil
}

func (s *InMemoryJobStore) UpdateJob(job *core.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; !exists {
		return core.ErrJobNotFound
	}
	s.jobs[job.ID] = copyJob(job)
	return nil
}

func (s *InMemoryJobStore) GetJobByID(id uuid.UUID) (*core.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, exists := s.jobs[id]
	if !exists {
		return nil, nil
	}
	return copyJob(job), nil
}

// GetJobs returns jobs newest first.
func (s *InMemoryJobStore) GetJobs(filter core.JobFilter) ([]*core.Job, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*core.Job
	for _, id := range slices.Backward(s.order) {
		job := s.jobs[id]
		if filter.Status != nil && job.Status != *filter.Status {
			continue
		}
		matched = append(matched, job)
	}

	total := len(matched)
	start := min(max(filter.Offset, 0), total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}

	page := make([]*core.Job, 0, end-start)
	for _, job := range matched[start:end] {
		page = append(page, copyJob(job))
	}
	return page, total, nil
}

func (s *InMemoryJobStore) SaveTasks(tasks ...*core.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, task := range tasks {
		if _, exists := s.jobs[task.JobID]; !exists {
			return fmt.Errorf("task %s: %w", task.ID, core.ErrJobNotFound)
		}
	}
	s.saveTasks(tasks)
	return nil
}

func (s *InMemoryJobStore) saveTasks(tasks []*core.Task) {
	for _, task := range tasks {
		if _, exists := s.tasks[task.ID]; !exists {
			s.byJob[task.JobID] = append(s.byJob[task.JobID], task.ID)
		}
		s.tasks[task.ID] = copyTask(task)
	}
}

func (s *InMemoryJobStore) UpdateTask(task *core.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[task.ID]; !exists {
		return core.ErrTaskNotFound
	}
	s.tasks[task.ID] = copyTask(task)
	return nil
}

func (s *InMemoryJobStore) GetTaskByID(id uuid.UUID) (*core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, exists := s.tasks[id]
	if !exists {
		return nil, nil
	}
	return copyTask(task), nil
}

// GetTasksByJobID returns a job's tasks in the order they were saved.
func (s *InMemoryJobStore) GetTasksByJobID(jobID uuid.UUID) ([]*core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byJob[jobID]
	tasks := make([]*core.Task, 0, len(ids))
	for _, id := range ids {
		tasks = append(tasks, copyTask(s.tasks[id]))
	}
	return tasks, nil
}

func (s *InMemoryJobStore) GetRunningTasksByWorkerID(workerID uuid.UUID) ([]*core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*core.Task
	for _, id := range s.order {
		for _, taskID := range s.byJob[id] {
			task := s.tasks[taskID]
			if task.WorkerID != nil && *task.WorkerID == workerID && task.Status == core.TaskStatusRunning {
				result = append(result, copyTask(task))
			}
		}
	}
	return result, nil
}

type InMemoryWorkerStore struct {
	mu      sync.RWMutex
	workers map[uuid.UUID]*core.Worker
}

func NewInMemoryWorkerStore() *InMemoryWorkerStore {
	return &InMemoryWorkerStore{
		workers: make(map[uuid.UUID]*core.Worker),
	}
}

func (s *InMemoryWorkerStore) AddWorker(worker *core.Worker) error {
	if worker == nil {
		return fmt.Errorf("worker is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w := *worker
	s.workers[worker.ID] = &w
	return nil
}

func (s *InMemoryWorkerStore) GetWorkerByID(id uuid.UUID) (*core.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	worker, exists := s.workers[id]
	if !exists {
		return nil, nil
	}
	w := *worker
	return &w, nil
}

// GetAllWorkers returns workers ordered by registration time.
func (s *InMemoryWorkerStore) GetAllWorkers() ([]*core.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	workers := make([]*core.Worker, 0, len(s.workers))
	for _, worker := range s.workers {
		w := *worker
		workers = append(workers, &w)
	}
	slices.SortFunc(workers, func(a, b *core.Worker) int {
		if c := a.RegisteredAt.Compare(b.RegisteredAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	return workers, nil
}

func (s *InMemoryWorkerStore) UpdateWorkerHeartbeat(id uuid.UUID, timestamp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	worker, exists := s.workers[id]
	if !exists {
		return fmt.Errorf("%w: %s", core.ErrWorkerNotFound, id)
	}
	worker.LastHeartbeatAt = timestamp
	return nil
}

func (s *InMemoryWorkerStore) RemoveWorker(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.workers, id)
	return nil
}

func (s *InMemoryWorkerStore) GetStaleWorkers(threshold time.Time) ([]*core.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stale []*core.Worker
	for _, worker := range s.workers {
		if worker.LastHeartbeatAt.Before(threshold) {
			w := *worker
			stale = append(stale, &w)
		}
	}
	return stale, nil
}

func copyJob(job *core.Job) *core.Job {
	j := *job
	if job.Result != nil {
		r := *job.Result
		j.Result = &r
	}
	if job.Error != nil {
		e := *job.Error
		j.Error = &e
	}
	return &j
}

func copyTask(task *core.Task) *core.Task {
	t := *task
	if task.WorkerID != nil {
		id := *task.WorkerID
		t.WorkerID = &id
	}
	if task.Result != nil {
		r := *task.Result
		t.Result = &r
	}
	if task.Error != nil {
		e := *task.Error
		t.Error = &e
	}
	return &t
}
