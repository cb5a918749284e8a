package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/vinocave/internal/common"
	pb "github.com/dmitrijs2005/vinocave/internal/proto"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// mapError translates service errors into gRPC statuses. Internal details
// are logged, never sent.
func (s *GRPCServer) mapError(ctx context.Context, method string, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorForbidden):
		return status.Error(codes.PermissionDenied, "forbidden")
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	default:
		s.logger.Error(ctx, "request failed", "method", method, "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

func (s *GRPCServer) owner(ctx context.Context) (string, error) {
	id, ok := ownerIDFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing token")
	}
	return id, nil
}

func (s *GRPCServer) encode(ctx context.Context, method string, out *structpb.Struct, err error) (*structpb.Struct, error) {
	if err != nil {
		s.logger.Error(ctx, "encode response", "method", method, "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func (s *GRPCServer) Ping(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(map[string]any{pb.KeyStatus: "OK"})
	return s.encode(ctx, "Ping", out, err)
}

func (s *GRPCServer) CreateOwner(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := pb.ParseOwnerRequest(in)

	grant, err := s.owners.Create(ctx, req.Name)
	if err != nil {
		return nil, s.mapError(ctx, "CreateOwner", err)
	}

	s.logger.Info(ctx, "Owner created", "owner_id", grant.OwnerID)
	out, err := pb.OwnerResponse{OwnerID: grant.OwnerID, AccessToken: grant.AccessToken}.Struct()
	return s.encode(ctx, "CreateOwner", out, err)
}

func (s *GRPCServer) ResolveOwner(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := pb.ParseOwnerRequest(in)

	grant, err := s.owners.Resolve(ctx, req.OwnerID)
	if err != nil {
		return nil, s.mapError(ctx, "ResolveOwner", err)
	}

	out, err := pb.OwnerResponse{OwnerID: grant.OwnerID, AccessToken: grant.AccessToken}.Struct()
	return s.encode(ctx, "ResolveOwner", out, err)
}

func (s *GRPCServer) Query(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	req := pb.ParseQueryRequest(in)

	docs, err := s.documents.Query(ctx, ownerID, req.Collection, req.Field, req.Value)
	if err != nil {
		return nil, s.mapError(ctx, "Query", err)
	}

	result := make([]pb.Document, 0, len(docs))
	for _, d := range docs {
		result = append(result, pb.Document{ID: d.ID, Data: d.Data, CreateTime: d.CreatedAt})
	}
	out, err := pb.QueryResponse(result)
	return s.encode(ctx, "Query", out, err)
}

func (s *GRPCServer) Add(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	req := pb.ParseAddRequest(in)

	doc, err := s.documents.Add(ctx, ownerID, req.Collection, req.Data)
	if err != nil {
		return nil, s.mapError(ctx, "Add", err)
	}

	out, err := pb.AddResponse(doc.ID, doc.CreatedAt)
	return s.encode(ctx, "Add", out, err)
}

func (s *GRPCServer) Set(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	req := pb.ParseSetRequest(in)

	if err := s.documents.Set(ctx, ownerID, req.Collection, req.ID, req.Data); err != nil {
		return nil, s.mapError(ctx, "Set", err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Delete(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	req := pb.ParseDeleteRequest(in)

	if err := s.documents.Delete(ctx, ownerID, req.Collection, req.ID); err != nil {
		return nil, s.mapError(ctx, "Delete", err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) PresignBackup(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}

	key, url, err := s.backup.PresignBackup(ctx, ownerID)
	if err != nil {
		return nil, s.mapError(ctx, "PresignBackup", err)
	}

	out, err := pb.PresignResponse{Key: key, URL: url}.Struct()
	return s.encode(ctx, "PresignBackup", out, err)
}
