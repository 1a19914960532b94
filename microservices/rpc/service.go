package rpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName        = "goban.ai.MoveService"
	GenerateMoveMethod = "/" + ServiceName + "/GenerateMove"
)

// MoveServiceServer отвечает на запросы хода ИИ. Сообщения передаются как
// google.protobuf.Struct, поэтому сгенерированный код не нужен.
type MoveServiceServer interface {
	GenerateMove(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

func RegisterMoveServiceServer(s grpc.ServiceRegistrar, srv MoveServiceServer) {
	s.RegisterService(&MoveServiceDesc, srv)
}

func generateMoveHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MoveServiceServer).GenerateMove(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GenerateMoveMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MoveServiceServer).GenerateMove(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var MoveServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MoveServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GenerateMove",
			Handler:    generateMoveHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "goban/ai/move_service",
}

type MoveServiceClient interface {
	GenerateMove(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type moveServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMoveServiceClient(cc grpc.ClientConnInterface) MoveServiceClient {
	return &moveServiceClient{cc: cc}
}

func (c *moveServiceClient) GenerateMove(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GenerateMoveMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func msToDuration(ms float64) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
