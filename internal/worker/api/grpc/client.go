package grpc

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"github.com/nemanja-m/lapreduce/internal/shared/config"
	"github.com/nemanja-m/lapreduce/internal/shared/wire"
	"github.com/nemanja-m/lapreduce/internal/worker/core"
	lapcore "github.com/nemanja-m/lapreduce/pkg/core"
)

type CoordinatorClient struct {
	conn   *grpc.ClientConn
	client *wire.CoordinatorServiceClient

	workerID        uuid.UUID
	coordinatorAddr string
}

func NewCoordinatorClient(coordinatorAddr string, cfg config.WorkerGRPCConfig, workerID uuid.UUID, opts ...grpc.DialOption) (*CoordinatorClient, error) {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(
			keepalive.ClientParameters{
				Time:                cfg.KeepaliveTime,
				Timeout:             cfg.KeepaliveTimeout,
				PermitWithoutStream: true,
			},
		),
	}, opts...)

	conn, err := grpc.NewClient(coordinatorAddr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to coordinator: %w", err)
	}

	return &CoordinatorClient{
		conn:            conn,
		client:          wire.NewCoordinatorServiceClient(conn),
		workerID:        workerID,
		coordinatorAddr: coordinatorAddr,
	}, nil
}

func (c *CoordinatorClient) WorkerID() uuid.UUID {
	return c.workerID
}

// RegisterWorker announces the worker and returns the heartbeat interval the
// coordinator expects.
func (c *CoordinatorClient) RegisterWorker(ctx context.Context, reg core.Registration) (time.Duration, error) {
	req := &wire.RegisterWorkerRequest{
		WorkerID:             c.workerID.String(),
		Address:              reg.Address,
		AvailableCPUCores:    reg.CPUCores,
		AvailableMemoryBytes: reg.MemoryBytes,
	}
	resp, err := c.client.RegisterWorker(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("failed to register worker: %w", err)
	}

	switch resp.Status {
	case wire.RegistrationStatusBadRequest:
		return 0, fmt.Errorf("bad request: %s", resp.Message)
	case wire.RegistrationStatusRejected:
		return 0, fmt.Errorf("coordinator rejected worker: %s", resp.Message)
	case wire.RegistrationStatusFailed:
		return 0, fmt.Errorf("coordinator failed to register worker: %s", resp.Message)
	}

	return time.Duration(resp.HeartbeatIntervalSeconds) * time.Second, nil
}

func (c *CoordinatorClient) SendHeartbeat(ctx context.Context) error {
	resp, err := c.client.Heartbeat(ctx, &wire.HeartbeatRequest{WorkerID: c.workerID.String()})
	if err != nil {
		return fmt.Errorf("failed to send heartbeat: %w", err)
	}
	if !resp.Acknowledged {
		return core.ErrNotRegistered
	}
	return nil
}

// PullTask returns the next task for this worker, or nil when the queue is
// empty.
func (c *CoordinatorClient) PullTask(ctx context.Context) (*wire.TaskAssignment, error) {
	resp, err := c.client.PullTask(ctx, &wire.PullTaskRequest{WorkerID: c.workerID.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to pull task: %w", err)
	}
	return resp.Task, nil
}

func (c *CoordinatorClient) CompleteTask(ctx context.Context, taskID string, extrema lapcore.LocalExtrema) error {
	ack, err := c.client.CompleteTask(ctx, &wire.CompleteTaskRequest{
		WorkerID: c.workerID.String(),
		TaskID:   taskID,
		Min:      extrema.Min,
		Max:      extrema.Max,
	})
	return acknowledged(ack, err)
}

func (c *CoordinatorClient) FailTask(ctx context.Context, taskID string, kind string, errMsg string) error {
	ack, err := c.client.FailTask(ctx, &wire.FailTaskRequest{
		WorkerID: c.workerID.String(),
		TaskID:   taskID,
		Kind:     kind,
		Error:    errMsg,
	})
	return acknowledged(ack, err)
}

func acknowledged(ack *wire.TaskAck, err error) error {
	if err != nil {
		return err
	}
	if !ack.Acknowledged {
		return fmt.Errorf("coordinator refused report: %s", ack.Message)
	}
	return nil
}

func (c *CoordinatorClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
