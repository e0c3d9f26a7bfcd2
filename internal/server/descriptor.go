package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service. Messages travel as
// google.protobuf.Struct so clients need no generated stubs.
const ServiceName = "statementinsights.v1.DocumentService"

const (
	MethodProcess  = "/" + ServiceName + "/Process"
	MethodGetJob   = "/" + ServiceName + "/GetJob"
	MethodListJobs = "/" + ServiceName + "/ListJobs"
)

type DocumentServer interface {
	Process(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetJob(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListJobs(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var DocumentServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DocumentServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Process",
			Handler:    unaryHandler(MethodProcess, DocumentServer.Process),
		},
		{
			MethodName: "GetJob",
			Handler:    unaryHandler(MethodGetJob, DocumentServer.GetJob),
		},
		{
			MethodName: "ListJobs",
			Handler:    unaryHandler(MethodListJobs, DocumentServer.ListJobs),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "statementinsights/v1/document.proto",
}

func RegisterDocumentServiceServer(s grpc.ServiceRegistrar, srv DocumentServer) {
	s.RegisterService(&DocumentServiceDesc, srv)
}

type unaryMethod func(DocumentServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DocumentServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DocumentServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// DocumentClient is the client side of DocumentServiceDesc.
type DocumentClient struct {
	cc grpc.ClientConnInterface
}

func NewDocumentClient(cc grpc.ClientConnInterface) *DocumentClient {
	return &DocumentClient{cc: cc}
}

func (c *DocumentClient) Process(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodProcess, in, opts...)
}

func (c *DocumentClient) GetJob(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetJob, in, opts...)
}

func (c *DocumentClient) ListJobs(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodListJobs, in, opts...)
}

func (c *DocumentClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
