package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// EntityServer is implemented by the server for each entity kind.
type EntityServer interface {
	Create(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Update(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Delete(ctx context.Context, in *wrapperspb.Int64Value) (*emptypb.Empty, error)
	List(ctx context.Context, in *structpb.Struct) (*structpb.ListValue, error)
}

// HealthServer answers Ping.
type HealthServer interface {
	Ping(ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error)
}

// unary builds a grpc.MethodHandler decoding into a fresh Req and dispatching
// through call, honoring the server interceptor chain.
func unary[Req any, PReq interface {
	*Req
}, Resp any](fullMethod string, call func(srv any, ctx context.Context, in PReq) (Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv, ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// EntityServiceDesc returns the service descriptor for kind.
func EntityServiceDesc(kind string) *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: ServiceName(kind),
		HandlerType: (*EntityServer)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: OpCreate,
				Handler: unary(FullMethod(kind, OpCreate), func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
					return srv.(EntityServer).Create(ctx, in)
				}),
			},
			{
				MethodName: OpUpdate,
				Handler: unary(FullMethod(kind, OpUpdate), func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
					return srv.(EntityServer).Update(ctx, in)
				}),
			},
			{
				MethodName: OpDelete,
				Handler: unary(FullMethod(kind, OpDelete), func(srv any, ctx context.Context, in *wrapperspb.Int64Value) (*emptypb.Empty, error) {
					return srv.(EntityServer).Delete(ctx, in)
				}),
			},
			{
				MethodName: OpList,
				Handler: unary(FullMethod(kind, OpList), func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.ListValue, error) {
					return srv.(EntityServer).List(ctx, in)
				}),
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "daybook/v1/entities.proto",
	}
}

// HealthServiceDesc is the descriptor of the health service.
var HealthServiceDesc = grpc.ServiceDesc{
	ServiceName: HealthServiceName,
	HandlerType: (*HealthServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Ping",
			Handler: unary(PingMethod, func(srv any, ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error) {
				return srv.(HealthServer).Ping(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "daybook/v1/health.proto",
}
