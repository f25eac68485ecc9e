package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nemanja-m/lapreduce/internal/shared/wire"
	"github.com/nemanja-m/lapreduce/internal/worker/core"
	lapcore "github.com/nemanja-m/lapreduce/pkg/core"
)

type failedReport struct {
	taskID string
	kind   string
	errMsg string
}

type mockCoordinatorClient struct {
	mu sync.Mutex

	registrations int
	registerErrs  []error

	heartbeatCount int
	heartbeatErr   error

	tasks       []*wire.TaskAssignment
	taskIndex   int
	pullTaskErr error

	completedTasks []string
	completeErr    error

	failedTasks []failedReport
	failErr     error
}

func (m *mockCoordinatorClient) RegisterWorker(ctx context.Context, reg core.Registration) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrations++
	if len(m.registerErrs) > 0 {
		err := m.registerErrs[0]
		m.registerErrs = m.registerErrs[1:]
		return 0, err
	}
	return 0, nil
}

func (m *mockCoordinatorClient) SendHeartbeat(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.heartbeatCount++
	err := m.heartbeatErr
	if errors.Is(err, core.ErrNotRegistered) {
		// Re-registration clears the condition.
		m.heartbeatErr = nil
	}
	return err
}

func (m *mockCoordinatorClient) PullTask(ctx context.Context) (*wire.TaskAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pullTaskErr != nil {
		return nil, m.pullTaskErr
	}
	if m.taskIndex >= len(m.tasks) {
		return nil, nil
	}
	task := m.tasks[m.taskIndex]
	m.taskIndex++
	return task, nil
}

func (m *mockCoordinatorClient) CompleteTask(ctx context.Context, taskID string, extrema lapcore.LocalExtrema) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completedTasks = append(m.completedTasks, taskID)
	return m.completeErr
}

func (m *mockCoordinatorClient) FailTask(ctx context.Context, taskID string, kind string, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failedTasks = append(m.failedTasks, failedReport{taskID: taskID, kind: kind, errMsg: errMsg})
	return m.failErr
}

func (m *mockCoordinatorClient) Close() error {
	return nil
}

type mockExecutor struct {
	mu            sync.Mutex
	executedTasks []string
	execErr       error
}

func (m *mockExecutor) Execute(ctx context.Context, task *wire.TaskAssignment) (lapcore.LocalExtrema, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executedTasks = append(m.executedTasks, task.TaskID)
	return lapcore.LocalExtrema{Min: 1, Max: 2}, m.execErr
}

type mockLogger struct{}

func (m *mockLogger) Debug(msg string, args ...any) {}
func (m *mockLogger) Info(msg string, args ...any)  {}
func (m *mockLogger) Warn(msg string, args ...any)  {}
func (m *mockLogger) Error(msg string, args ...any) {}
func (m *mockLogger) Fatal(msg string, args ...any) {}

func runFor(svc core.WorkerService, d time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	_ = svc.Run(ctx)
}

func TestWorkerService_Run_RegistersAndSendsHeartbeats(t *testing.T) {
	client := &mockCoordinatorClient{}
	svc := NewWorkerService(client, &mockExecutor{}, core.Registration{}, 20*time.Millisecond, &mockLogger{})

	runFor(svc, 70*time.Millisecond)

	client.mu.Lock()
	defer client.mu.Unlock()

	if client.registrations != 1 {
		t.Errorf("Expected 1 registration, got %d", client.registrations)
	}
	// With 20ms interval and 70ms wait, expect at least 2-3 heartbeats
	if client.heartbeatCount < 2 {
		t.Errorf("Expected at least 2 heartbeats, got %d", client.heartbeatCount)
	}
}

func TestWorkerService_Run_RetriesRegistration(t *testing.T) {
	client := &mockCoordinatorClient{
		registerErrs: []error{errors.New("connection refused")},
	}
	svc := NewWorkerService(client, &mockExecutor{}, core.Registration{}, time.Second, &mockLogger{})

	runFor(svc, 300*time.Millisecond)

	client.mu.Lock()
	defer client.mu.Unlock()

	if client.registrations != 2 {
		t.Errorf("Expected 2 registration attempts, got %d", client.registrations)
	}
}

func TestWorkerService_Run_ReturnsWhenRegistrationNeverSucceeds(t *testing.T) {
	client := &mockCoordinatorClient{
		registerErrs: []error{errors.New("down"), errors.New("down"), errors.New("down"), errors.New("down")},
	}
	executor := &mockExecutor{}
	svc := NewWorkerService(client, executor, core.Registration{}, time.Second, &mockLogger{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := svc.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
	if len(executor.executedTasks) != 0 {
		t.Error("Expected no tasks before registration")
	}
}

func TestWorkerService_HeartbeatLoop_HandlesErrors(t *testing.T) {
	client := &mockCoordinatorClient{
		heartbeatErr: errors.New("connection failed"),
	}
	svc := NewWorkerService(client, &mockExecutor{}, core.Registration{}, 20*time.Millisecond, &mockLogger{})

	runFor(svc, 50*time.Millisecond)

	client.mu.Lock()
	defer client.mu.Unlock()

	// Should still attempt heartbeats even with errors
	if client.heartbeatCount == 0 {
		t.Error("Expected heartbeat attempts even with errors")
	}
}

func TestWorkerService_HeartbeatLoop_ReregistersWhenEvicted(t *testing.T) {
	client := &mockCoordinatorClient{
		heartbeatErr: core.ErrNotRegistered,
	}
	svc := NewWorkerService(client, &mockExecutor{}, core.Registration{}, 20*time.Millisecond, &mockLogger{})

	runFor(svc, 70*time.Millisecond)

	client.mu.Lock()
	defer client.mu.Unlock()

	if client.registrations != 2 {
		t.Errorf("Expected worker to register again, got %d registrations", client.registrations)
	}
}

func TestWorkerService_TaskLoop_ExecutesTask(t *testing.T) {
	client := &mockCoordinatorClient{
		tasks: []*wire.TaskAssignment{{TaskID: "task-1", JobID: "job-1"}},
	}
	executor := &mockExecutor{}
	svc := NewWorkerService(client, executor, core.Registration{}, time.Second, &mockLogger{})

	runFor(svc, 50*time.Millisecond)

	executor.mu.Lock()
	defer executor.mu.Unlock()

	if len(executor.executedTasks) != 1 || executor.executedTasks[0] != "task-1" {
		t.Errorf("Expected task-1 to be executed, got %v", executor.executedTasks)
	}

	client.mu.Lock()
	defer client.mu.Unlock()

	if len(client.completedTasks) != 1 || client.completedTasks[0] != "task-1" {
		t.Errorf("Expected task-1 to be completed, got %v", client.completedTasks)
	}
}

func TestWorkerService_TaskLoop_ReportsFailureKind(t *testing.T) {
	tests := []struct {
		name     string
		execErr  error
		wantKind string
		wantMsg  string
	}{
		{
			name:     "empty partition",
			execErr:  lapcore.NewReduceError(lapcore.ErrEmptyPartition, 0, "%s", "VER"),
			wantKind: lapcore.KindEmptyPartition,
			wantMsg:  "VER",
		},
		{
			name:     "other failure",
			execErr:  errors.New("checksum mismatch"),
			wantKind: lapcore.KindUnknown,
			wantMsg:  "checksum mismatch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockCoordinatorClient{
				tasks: []*wire.TaskAssignment{{TaskID: "task-1", JobID: "job-1"}},
			}
			executor := &mockExecutor{execErr: tt.execErr}
			svc := NewWorkerService(client, executor, core.Registration{}, time.Second, &mockLogger{})

			runFor(svc, 50*time.Millisecond)

			client.mu.Lock()
			defer client.mu.Unlock()

			if len(client.failedTasks) != 1 {
				t.Fatalf("Expected 1 failed task, got %v", client.failedTasks)
			}
			got := client.failedTasks[0]
			if got.taskID != "task-1" || got.kind != tt.wantKind || got.errMsg != tt.wantMsg {
				t.Errorf("Expected (task-1, %s, %q), got %+v", tt.wantKind, tt.wantMsg, got)
			}
			if len(client.completedTasks) != 0 {
				t.Errorf("Expected no completed tasks, got %v", client.completedTasks)
			}
		})
	}
}

func TestWorkerService_TaskLoop_ExecutesMultipleTasks(t *testing.T) {
	client := &mockCoordinatorClient{
		tasks: []*wire.TaskAssignment{
			{TaskID: "task-1", JobID: "job-1", Partition: 0},
			{TaskID: "task-2", JobID: "job-1", Partition: 1},
			{TaskID: "task-3", JobID: "job-1", Partition: 2},
		},
	}
	executor := &mockExecutor{}
	svc := NewWorkerService(client, executor, core.Registration{}, time.Second, &mockLogger{})

	runFor(svc, 100*time.Millisecond)

	executor.mu.Lock()
	defer executor.mu.Unlock()

	if len(executor.executedTasks) != 3 {
		t.Errorf("Expected 3 tasks executed, got %d", len(executor.executedTasks))
	}

	client.mu.Lock()
	defer client.mu.Unlock()

	if len(client.completedTasks) != 3 {
		t.Errorf("Expected 3 tasks completed, got %d", len(client.completedTasks))
	}
}

func TestWorkerService_TaskLoop_SurvivesPullErrors(t *testing.T) {
	client := &mockCoordinatorClient{pullTaskErr: errors.New("unavailable")}
	executor := &mockExecutor{}
	svc := NewWorkerService(client, executor, core.Registration{}, time.Second, &mockLogger{})

	runFor(svc, 50*time.Millisecond)

	if len(executor.executedTasks) != 0 {
		t.Errorf("Expected no tasks executed, got %v", executor.executedTasks)
	}
}

func TestWorkerService_Run_StopsOnContextCancel(t *testing.T) {
	client := &mockCoordinatorClient{}
	svc := NewWorkerService(client, &mockExecutor{}, core.Registration{}, time.Second, &mockLogger{})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		_ = svc.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
		// Success - Run returned after context cancel
	case <-time.After(500 * time.Millisecond):
		t.Error("Run did not return after context cancel")
	}
}
