// Package proto defines the DocumentStore gRPC service shared by the
// vinocave client and server.
//
// Messages travel as google.protobuf.Struct / google.protobuf.Empty, so the
// service needs no generated message types. The descriptor, client stub and
// server registration below mirror what protoc-gen-go-grpc would emit for:
//
//	service DocumentStore {
//	  rpc Ping(google.protobuf.Empty) returns (google.protobuf.Struct);
//	  rpc CreateOwner(google.protobuf.Struct) returns (google.protobuf.Struct);
//	  rpc ResolveOwner(google.protobuf.Struct) returns (google.protobuf.Struct);
//	  rpc Query(google.protobuf.Struct) returns (google.protobuf.Struct);
//	  rpc Add(google.protobuf.Struct) returns (google.protobuf.Struct);
//	  rpc Set(google.protobuf.Struct) returns (google.protobuf.Empty);
//	  rpc Delete(google.protobuf.Struct) returns (google.protobuf.Empty);
//	  rpc PresignBackup(google.protobuf.Empty) returns (google.protobuf.Struct);
//	}
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "vinocave.store.DocumentStore"

const (
	DocumentStore_Ping_FullMethodName          = "/vinocave.store.DocumentStore/Ping"
	DocumentStore_CreateOwner_FullMethodName   = "/vinocave.store.DocumentStore/CreateOwner"
	DocumentStore_ResolveOwner_FullMethodName  = "/vinocave.store.DocumentStore/ResolveOwner"
	DocumentStore_Query_FullMethodName         = "/vinocave.store.DocumentStore/Query"
	DocumentStore_Add_FullMethodName           = "/vinocave.store.DocumentStore/Add"
	DocumentStore_Set_FullMethodName           = "/vinocave.store.DocumentStore/Set"
	DocumentStore_Delete_FullMethodName        = "/vinocave.store.DocumentStore/Delete"
	DocumentStore_PresignBackup_FullMethodName = "/vinocave.store.DocumentStore/PresignBackup"
)

// DocumentStoreClient is the client API for the DocumentStore service.
type DocumentStoreClient interface {
	Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	CreateOwner(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ResolveOwner(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Query(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Add(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Set(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Delete(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	PresignBackup(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type documentStoreClient struct {
	cc grpc.ClientConnInterface
}

func NewDocumentStoreClient(cc grpc.ClientConnInterface) DocumentStoreClient {
	return &documentStoreClient{cc}
}

func (c *documentStoreClient) Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, DocumentStore_Ping_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *documentStoreClient) CreateOwner(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, DocumentStore_CreateOwner_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *documentStoreClient) ResolveOwner(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, DocumentStore_ResolveOwner_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *documentStoreClient) Query(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, DocumentStore_Query_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *documentStoreClient) Add(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, DocumentStore_Add_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *documentStoreClient) Set(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, DocumentStore_Set_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *documentStoreClient) Delete(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, DocumentStore_Delete_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *documentStoreClient) PresignBackup(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, DocumentStore_PresignBackup_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// DocumentStoreServer is the server API for the DocumentStore service.
// Implementations must embed UnimplementedDocumentStoreServer.
type DocumentStoreServer interface {
	Ping(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	CreateOwner(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResolveOwner(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Query(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Add(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Set(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Delete(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	PresignBackup(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	mustEmbedUnimplementedDocumentStoreServer()
}

// UnimplementedDocumentStoreServer returns codes.Unimplemented for every method.
type UnimplementedDocumentStoreServer struct{}

func (UnimplementedDocumentStoreServer) Ping(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Ping not implemented")
}
func (UnimplementedDocumentStoreServer) CreateOwner(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CreateOwner not implemented")
}
func (UnimplementedDocumentStoreServer) ResolveOwner(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ResolveOwner not implemented")
}
func (UnimplementedDocumentStoreServer) Query(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Query not implemented")
}
func (UnimplementedDocumentStoreServer) Add(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Add not implemented")
}
func (UnimplementedDocumentStoreServer) Set(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Set not implemented")
}
func (UnimplementedDocumentStoreServer) Delete(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Delete not implemented")
}
func (UnimplementedDocumentStoreServer) PresignBackup(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method PresignBackup not implemented")
}
func (UnimplementedDocumentStoreServer) mustEmbedUnimplementedDocumentStoreServer() {}

func RegisterDocumentStoreServer(s grpc.ServiceRegistrar, srv DocumentStoreServer) {
	s.RegisterService(&DocumentStore_ServiceDesc, srv)
}

func _DocumentStore_Ping_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DocumentStoreServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DocumentStore_Ping_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DocumentStoreServer).Ping(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _DocumentStore_CreateOwner_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DocumentStoreServer).CreateOwner(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DocumentStore_CreateOwner_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DocumentStoreServer).CreateOwner(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _DocumentStore_ResolveOwner_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DocumentStoreServer).ResolveOwner(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DocumentStore_ResolveOwner_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DocumentStoreServer).ResolveOwner(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _DocumentStore_Query_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DocumentStoreServer).Query(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DocumentStore_Query_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DocumentStoreServer).Query(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _DocumentStore_Add_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DocumentStoreServer).Add(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DocumentStore_Add_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DocumentStoreServer).Add(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _DocumentStore_Set_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DocumentStoreServer).Set(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DocumentStore_Set_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DocumentStoreServer).Set(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _DocumentStore_Delete_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DocumentStoreServer).Delete(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DocumentStore_Delete_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DocumentStoreServer).Delete(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _DocumentStore_PresignBackup_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DocumentStoreServer).PresignBackup(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DocumentStore_PresignBackup_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DocumentStoreServer).PresignBackup(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// DocumentStore_ServiceDesc is the grpc.ServiceDesc for the DocumentStore service.
var DocumentStore_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DocumentStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: _DocumentStore_Ping_Handler},
		{MethodName: "CreateOwner", Handler: _DocumentStore_CreateOwner_Handler},
		{MethodName: "ResolveOwner", Handler: _DocumentStore_ResolveOwner_Handler},
		{MethodName: "Query", Handler: _DocumentStore_Query_Handler},
		{MethodName: "Add", Handler: _DocumentStore_Add_Handler},
		{MethodName: "Set", Handler: _DocumentStore_Set_Handler},
		{MethodName: "Delete", Handler: _DocumentStore_Delete_Handler},
		{MethodName: "PresignBackup", Handler: _DocumentStore_PresignBackup_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vinocave/store.proto",
}
