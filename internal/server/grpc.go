package server

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// runServiceDesc registers RunService without generated stubs. Every method
// takes and returns a structpb.Struct.
var runServiceDesc = grpc.ServiceDesc{
	ServiceName: RunServiceName,
	HandlerType: (*interface{})(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("Execute", func(ctx context.Context, s *RunService, req *structpb.Struct) (*structpb.Struct, error) {
			return executeRequest(ctx, s, req)
		}),
		unaryMethod("OpenSession", func(_ context.Context, s *RunService, _ *structpb.Struct) (*structpb.Struct, error) {
			return openSessionRequest(s), nil
		}),
		unaryMethod("CloseSession", func(_ context.Context, s *RunService, req *structpb.Struct) (*structpb.Struct, error) {
			return closeSessionRequest(s, req)
		}),
		unaryMethod("Disassemble", func(_ context.Context, s *RunService, req *structpb.Struct) (*structpb.Struct, error) {
			return disassembleRequest(s, req)
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "luma/v1/run.proto",
}

type structHandler func(ctx context.Context, s *RunService, req *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(name string, h structHandler) grpc.MethodDesc {
	fullMethod := "/" + RunServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			req := new(structpb.Struct)
			if err := dec(req); err != nil {
				return nil, err
			}
			svc := srv.(*RunService)
			call := func(ctx context.Context, req interface{}) (interface{}, error) {
				res, err := h(ctx, svc, req.(*structpb.Struct))
				if err != nil {
					return nil, grpcError(err)
				}
				return res, nil
			}
			if interceptor == nil {
				return call(ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, req, info, call)
		},
	}
}

func grpcError(err error) error {
	switch {
	case errors.Is(err, ErrNoCode):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrSessionNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrTimeout):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.InvalidArgument, err.Error())
	}
}
