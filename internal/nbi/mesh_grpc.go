package nbi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// MeshServiceName is the fully-qualified gRPC service name.
const MeshServiceName = "walkermesh.v1.MeshService"

// Full method names, as seen by interceptors.
const (
	MeshService_GetGraph_FullMethodName         = "/" + MeshServiceName + "/GetGraph"
	MeshService_GetPositions_FullMethodName     = "/" + MeshServiceName + "/GetPositions"
	MeshService_AddGroundStation_FullMethodName = "/" + MeshServiceName + "/AddGroundStation"
	MeshService_Step_FullMethodName             = "/" + MeshServiceName + "/Step"
	MeshService_NodeCount_FullMethodName        = "/" + MeshServiceName + "/NodeCount"
	MeshService_Distance_FullMethodName         = "/" + MeshServiceName + "/Distance"
	MeshService_GetContacts_FullMethodName      = "/" + MeshServiceName + "/GetContacts"
)

// MeshServiceServer is the server API for MeshService. Messages are
// protobuf well-known types so no generated code is required.
type MeshServiceServer interface {
	GetGraph(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetPositions(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	AddGroundStation(context.Context, *structpb.Struct) (*wrapperspb.UInt32Value, error)
	Step(context.Context, *durationpb.Duration) (*structpb.Struct, error)
	NodeCount(context.Context, *emptypb.Empty) (*wrapperspb.UInt32Value, error)
	Distance(context.Context, *structpb.Struct) (*wrapperspb.DoubleValue, error)
	GetContacts(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterMeshServiceServer registers srv on s.
func RegisterMeshServiceServer(s grpc.ServiceRegistrar, srv MeshServiceServer) {
	s.RegisterService(&MeshService_ServiceDesc, srv)
}

// MeshService_ServiceDesc is the grpc.ServiceDesc for MeshService.
var MeshService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: MeshServiceName,
	HandlerType: (*MeshServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetGraph",
			Handler: unaryHandler(MeshService_GetGraph_FullMethodName, newEmpty,
				func(s MeshServiceServer, ctx context.Context, in *emptypb.Empty) (proto.Message, error) {
					return s.GetGraph(ctx, in)
				}),
		},
		{
			MethodName: "GetPositions",
			Handler: unaryHandler(MeshService_GetPositions_FullMethodName, newStringValue,
				func(s MeshServiceServer, ctx context.Context, in *wrapperspb.StringValue) (proto.Message, error) {
					return s.GetPositions(ctx, in)
				}),
		},
		{
			MethodName: "AddGroundStation",
			Handler: unaryHandler(MeshService_AddGroundStation_FullMethodName, newStruct,
				func(s MeshServiceServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
					return s.AddGroundStation(ctx, in)
				}),
		},
		{
			MethodName: "Step",
			Handler: unaryHandler(MeshService_Step_FullMethodName, newDuration,
				func(s MeshServiceServer, ctx context.Context, in *durationpb.Duration) (proto.Message, error) {
					return s.Step(ctx, in)
				}),
		},
		{
			MethodName: "NodeCount",
			Handler: unaryHandler(MeshService_NodeCount_FullMethodName, newEmpty,
				func(s MeshServiceServer, ctx context.Context, in *emptypb.Empty) (proto.Message, error) {
					return s.NodeCount(ctx, in)
				}),
		},
		{
			MethodName: "Distance",
			Handler: unaryHandler(MeshService_Distance_FullMethodName, newStruct,
				func(s MeshServiceServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
					return s.Distance(ctx, in)
				}),
		},
		{
			MethodName: "GetContacts",
			Handler: unaryHandler(MeshService_GetContacts_FullMethodName, newEmpty,
				func(s MeshServiceServer, ctx context.Context, in *emptypb.Empty) (proto.Message, error) {
					return s.GetContacts(ctx, in)
				}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "walkermesh/v1/mesh.proto",
}

func newEmpty() *emptypb.Empty                { return new(emptypb.Empty) }
func newStruct() *structpb.Struct             { return new(structpb.Struct) }
func newDuration() *durationpb.Duration       { return new(durationpb.Duration) }
func newStringValue() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }

// unaryHandler adapts a typed MeshServiceServer method to grpc.MethodHandler,
// routing through the server interceptor chain when one is installed.
func unaryHandler[Req proto.Message](
	fullMethod string,
	newReq func() Req,
	call func(MeshServiceServer, context.Context, Req) (proto.Message, error),
) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MeshServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(MeshServiceServer), ctx, req.(Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// MeshServiceClient is the client API for MeshService.
type MeshServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewMeshServiceClient returns a client bound to cc.
func NewMeshServiceClient(cc grpc.ClientConnInterface) *MeshServiceClient {
	return &MeshServiceClient{cc: cc}
}

func (c *MeshServiceClient) GetGraph(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MeshService_GetGraph_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MeshServiceClient) GetPositions(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MeshService_GetPositions_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MeshServiceClient) AddGroundStation(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.UInt32Value, error) {
	out := new(wrapperspb.UInt32Value)
	if err := c.cc.Invoke(ctx, MeshService_AddGroundStation_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MeshServiceClient) Step(ctx context.Context, in *durationpb.Duration, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MeshService_Step_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MeshServiceClient) NodeCount(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.UInt32Value, error) {
	out := new(wrapperspb.UInt32Value)
	if err := c.cc.Invoke(ctx, MeshService_NodeCount_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MeshServiceClient) Distance(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.DoubleValue, error) {
	out := new(wrapperspb.DoubleValue)
	if err := c.cc.Invoke(ctx, MeshService_Distance_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MeshServiceClient) GetContacts(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MeshService_GetContacts_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
