package wire

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "lapreduce.v1.CoordinatorService"

// CoordinatorServiceServer is implemented by the coordinator.
type CoordinatorServiceServer interface {
	RegisterWorker(context.Context, *RegisterWorkerRequest) (*RegisterWorkerResponse, error)
	Heartbeat(context.Context, *HeartbeatRequest) (*HeartbeatResponse, error)
	PullTask(context.Context, *PullTaskRequest) (*PullTaskResponse, error)
	CompleteTask(context.Context, *CompleteTaskRequest) (*TaskAck, error)
	FailTask(context.Context, *FailTaskRequest) (*TaskAck, error)
}

func RegisterCoordinatorServiceServer(s grpc.ServiceRegistrar, srv CoordinatorServiceServer) {
	s.RegisterService(&coordinatorServiceDesc, srv)
}

var coordinatorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CoordinatorServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("RegisterWorker", CoordinatorServiceServer.RegisterWorker),
		unaryMethod("Heartbeat", CoordinatorServiceServer.Heartbeat),
		unaryMethod("PullTask", CoordinatorServiceServer.PullTask),
		unaryMethod("CompleteTask", CoordinatorServiceServer.CompleteTask),
		unaryMethod("FailTask", CoordinatorServiceServer.FailTask),
	},
	Metadata: "lapreduce/v1/coordinator",
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func unaryMethod[Req, Resp any](
	name string,
	call func(CoordinatorServiceServer, context.Context, *Req) (*Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := &structpb.Struct{}
			if err := dec(in); err != nil {
				return nil, err
			}

			handler := func(ctx context.Context, msg any) (any, error) {
				req := new(Req)
				if err := decode(msg.(*structpb.Struct), req); err != nil {
					return nil, status.Error(codes.InvalidArgument, err.Error())
				}
				resp, err := call(srv.(CoordinatorServiceServer), ctx, req)
				if err != nil {
					return nil, err
				}
				out, err := encode(resp)
				if err != nil {
					return nil, status.Error(codes.Internal, err.Error())
				}
				return out, nil
			}

			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, handler)
		},
	}
}
