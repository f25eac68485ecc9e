package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/nemanja-m/lapreduce/internal/coordinator/core"
	"github.com/nemanja-m/lapreduce/internal/coordinator/service"
	"github.com/nemanja-m/lapreduce/internal/coordinator/storage"
	"github.com/nemanja-m/lapreduce/internal/shared/config"
	"github.com/nemanja-m/lapreduce/internal/shared/wire"
	lapcore "github.com/nemanja-m/lapreduce/pkg/core"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Warn(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}
func (nopLogger) Fatal(msg string, args ...any) {}

type testCoordinator struct {
	jobs    core.JobService
	workers core.WorkerService
	client  *wire.CoordinatorServiceClient
	health  healthpb.HealthClient
}

func startCoordinator(t *testing.T) *testCoordinator {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	jobs := service.NewJobService(ctx, storage.NewInMemoryJobStore(), service.JobServiceConfig{
		CollectTimeout: 2 * time.Second,
		MaxAttempts:    2,
	}, nopLogger{})
	workers := service.NewWorkerService(storage.NewInMemoryWorkerStore(), nopLogger{})

	srv := NewServer(config.GRPCConfig{
		KeepaliveMinTime:  time.Second,
		HeartbeatInterval: 3 * time.Second,
	}, workers, jobs, nopLogger{})

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("failed to dial coordinator: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return &testCoordinator{
		jobs:    jobs,
		workers: workers,
		client:  wire.NewCoordinatorServiceClient(conn),
		health:  healthpb.NewHealthClient(conn),
	}
}

func pullTask(t *testing.T, client *wire.CoordinatorServiceClient, workerID string) *wire.TaskAssignment {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := client.PullTask(context.Background(), &wire.PullTaskRequest{WorkerID: workerID})
		if err != nil {
			t.Fatalf("PullTask() error = %v", err)
		}
		if resp.Task != nil {
			return resp.Task
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("no task pulled before deadline")
	return nil
}

func TestCoordinatorService_RegisterWorker(t *testing.T) {
	c := startCoordinator(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		req        *wire.RegisterWorkerRequest
		wantStatus wire.RegistrationStatus
	}{
		{
			name: "valid worker",
			req: &wire.RegisterWorkerRequest{
				WorkerID:             uuid.NewString(),
				Address:              "worker-1:50051",
				AvailableCPUCores:    4,
				AvailableMemoryBytes: 8 << 30,
			},
			wantStatus: wire.RegistrationStatusSuccess,
		},
		{
			name:       "malformed worker ID",
			req:        &wire.RegisterWorkerRequest{WorkerID: "not-a-uuid"},
			wantStatus: wire.RegistrationStatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := c.client.RegisterWorker(ctx, tt.req)
			if err != nil {
				t.Fatalf("RegisterWorker() error = %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("expected status %s, got %s (%s)", tt.wantStatus, resp.Status, resp.Message)
			}
			if tt.wantStatus == wire.RegistrationStatusSuccess && resp.HeartbeatIntervalSeconds != 3 {
				t.Errorf("expected heartbeat interval 3s, got %d", resp.HeartbeatIntervalSeconds)
			}
		})
	}

	workers, _ := c.workers.GetWorkers()
	if len(workers) != 1 || workers[0].MemoryBytes != 8<<30 || workers[0].CPUCores != 4 {
		t.Errorf("expected one registered worker with capabilities, got %+v", workers)
	}
}

func TestCoordinatorService_Heartbeat(t *testing.T) {
	c := startCoordinator(t)
	ctx := context.Background()

	workerID := uuid.NewString()
	if _, err := c.client.RegisterWorker(ctx, &wire.RegisterWorkerRequest{WorkerID: workerID}); err != nil {
		t.Fatalf("RegisterWorker() error = %v", err)
	}

	tests := []struct {
		name     string
		workerID string
		wantAck  bool
	}{
		{name: "registered worker", workerID: workerID, wantAck: true},
		{name: "unknown worker", workerID: uuid.NewString(), wantAck: false},
		{name: "malformed ID", workerID: "bogus", wantAck: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := c.client.Heartbeat(ctx, &wire.HeartbeatRequest{WorkerID: tt.workerID})
			if err != nil {
				t.Fatalf("Heartbeat() error = %v", err)
			}
			if resp.Acknowledged != tt.wantAck {
				t.Errorf("expected acknowledged=%v, got %v", tt.wantAck, resp.Acknowledged)
			}
		})
	}
}

func TestCoordinatorService_RunsJobOverTheWire(t *testing.T) {
	c := startCoordinator(t)
	ctx := context.Background()

	job := &core.Job{
		Name: "wire",
		Dataset: lapcore.NewDataset(
			lapcore.Group{Name: "A", Samples: []float64{90.5, 88.2}},
			lapcore.Group{Name: "B", Samples: []float64{87.1, 92.3}},
		),
		Partitioning: core.PartitioningSpec{Mode: "groups"},
	}
	if err := c.jobs.SubmitJob(job); err != nil {
		t.Fatalf("SubmitJob() error = %v", err)
	}

	workerID := uuid.NewString()
	for range 2 {
		task := pullTask(t, c.client, workerID)
		if task.Checksum != lapcore.Checksum(task.Samples) {
			t.Fatalf("checksum of partition %d did not survive the wire", task.Partition)
		}
		ext, err := lapcore.ComputeLocalExtrema(task.Samples)
		if err != nil {
			t.Fatalf("ComputeLocalExtrema() error = %v", err)
		}
		ack, err := c.client.CompleteTask(ctx, &wire.CompleteTaskRequest{
			WorkerID: workerID,
			TaskID:   task.TaskID,
			Min:      ext.Min,
			Max:      ext.Max,
		})
		if err != nil || !ack.Acknowledged {
			t.Fatalf("CompleteTask() = %+v, %v", ack, err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		got, err := c.jobs.GetJob(job.ID)
		if err != nil {
			t.Fatalf("GetJob() error = %v", err)
		}
		if got.Status == core.JobStatusCompleted {
			if got.Result.Min != 87.1 || got.Result.Max != 92.3 {
				t.Errorf("expected (87.1, 92.3), got (%v, %v)", got.Result.Min, got.Result.Max)
			}
			break
		}
		if got.Status == core.JobStatusFailed || time.Now().After(deadline) {
			t.Fatalf("job did not complete: %s %+v", got.Status, got.Error)
		}
		time.Sleep(time.Millisecond)
	}

	resp, err := c.client.PullTask(ctx, &wire.PullTaskRequest{WorkerID: workerID})
	if err != nil {
		t.Fatalf("PullTask() error = %v", err)
	}
	if resp.Task != nil {
		t.Errorf("expected no task once the job finished, got %+v", resp.Task)
	}
}

func TestCoordinatorService_FailTask(t *testing.T) {
	c := startCoordinator(t)
	ctx := context.Background()

	job := &core.Job{
		Dataset:      lapcore.NewDataset(lapcore.Group{Name: "A", Samples: []float64{90.5}}, lapcore.Group{Name: "B"}),
		Partitioning: core.PartitioningSpec{Mode: "groups"},
	}
	if err := c.jobs.SubmitJob(job); err != nil {
		t.Fatalf("SubmitJob() error = %v", err)
	}

	workerID := uuid.NewString()
	pullTask(t, c.client, workerID)
	empty := pullTask(t, c.client, workerID)

	ack, err := c.client.FailTask(ctx, &wire.FailTaskRequest{
		WorkerID: workerID,
		TaskID:   empty.TaskID,
		Kind:     lapcore.KindEmptyPartition,
		Error:    "B",
	})
	if err != nil || !ack.Acknowledged {
		t.Fatalf("FailTask() = %+v, %v", ack, err)
	}

	// A second report for the same task is refused, not an RPC error.
	ack, err = c.client.FailTask(ctx, &wire.FailTaskRequest{WorkerID: workerID, TaskID: empty.TaskID})
	if err != nil {
		t.Fatalf("FailTask() error = %v", err)
	}
	if ack.Acknowledged {
		t.Error("expected repeated failure report to be refused")
	}
}

func TestCoordinatorService_InvalidArguments(t *testing.T) {
	c := startCoordinator(t)
	ctx := context.Background()

	_, err := c.client.PullTask(ctx, &wire.PullTaskRequest{WorkerID: "bogus"})
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("PullTask() code = %v, want InvalidArgument", status.Code(err))
	}

	_, err = c.client.CompleteTask(ctx, &wire.CompleteTaskRequest{WorkerID: uuid.NewString(), TaskID: "bogus"})
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("CompleteTask() code = %v, want InvalidArgument", status.Code(err))
	}

	ack, err := c.client.CompleteTask(ctx, &wire.CompleteTaskRequest{WorkerID: uuid.NewString(), TaskID: uuid.NewString()})
	if err != nil {
		t.Fatalf("CompleteTask() error = %v", err)
	}
	if ack.Acknowledged {
		t.Error("expected unknown task to be refused")
	}
}

func TestServer_HealthService(t *testing.T) {
	c := startCoordinator(t)

	resp, err := c.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: wire.ServiceName})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("expected SERVING, got %v", resp.Status)
	}
}
