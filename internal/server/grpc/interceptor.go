package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/vinocave/internal/common"
	pb "github.com/dmitrijs2005/vinocave/internal/proto"
	"github.com/dmitrijs2005/vinocave/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const ownerIDKey ctxKey = "ownerID"

// publicMethods run without an access token.
var publicMethods = map[string]bool{
	pb.DocumentStore_Ping_FullMethodName:         true,
	pb.DocumentStore_CreateOwner_FullMethodName:  true,
	pb.DocumentStore_ResolveOwner_FullMethodName: true,
}

func ownerIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ownerIDKey).(string)
	return id, ok && id != ""
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	ownerID, err := auth.GetOwnerIDFromToken(accessToken, s.jwtSecret)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
		}
		s.logger.Warn(ctx, "rejected token", "method", info.FullMethod, "error", err)
		return nil, status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error())
	}

	ctx = context.WithValue(ctx, ownerIDKey, ownerID)

	return handler(ctx, req)
}
