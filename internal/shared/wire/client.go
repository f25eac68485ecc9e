package wire

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// CoordinatorServiceClient is the worker-side stub of the coordinator service.
type CoordinatorServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCoordinatorServiceClient(cc grpc.ClientConnInterface) *CoordinatorServiceClient {
	return &CoordinatorServiceClient{cc: cc}
}

func (c *CoordinatorServiceClient) RegisterWorker(ctx context.Context, req *RegisterWorkerRequest, opts ...grpc.CallOption) (*RegisterWorkerResponse, error) {
	return invoke[RegisterWorkerResponse](ctx, c.cc, "RegisterWorker", req, opts...)
}

func (c *CoordinatorServiceClient) Heartbeat(ctx context.Context, req *HeartbeatRequest, opts ...grpc.CallOption) (*HeartbeatResponse, error) {
	return invoke[HeartbeatResponse](ctx, c.cc, "Heartbeat", req, opts...)
}

func (c *CoordinatorServiceClient) PullTask(ctx context.Context, req *PullTaskRequest, opts ...grpc.CallOption) (*PullTaskResponse, error) {
	return invoke[PullTaskResponse](ctx, c.cc, "PullTask", req, opts...)
}

func (c *CoordinatorServiceClient) CompleteTask(ctx context.Context, req *CompleteTaskRequest, opts ...grpc.CallOption) (*TaskAck, error) {
	return invoke[TaskAck](ctx, c.cc, "CompleteTask", req, opts...)
}

func (c *CoordinatorServiceClient) FailTask(ctx context.Context, req *FailTaskRequest, opts ...grpc.CallOption) (*TaskAck, error) {
	return invoke[TaskAck](ctx, c.cc, "FailTask", req, opts...)
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, req any, opts ...grpc.CallOption) (*Resp, error) {
	in, err := encode(req)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	resp := new(Resp)
	if err := decode(out, resp); err != nil {
		return nil, err
	}
	return resp, nil
}
