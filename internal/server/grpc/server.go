// Package grpc exposes the document store over gRPC: owner-scoped token
// checks, RPC metrics and the DocumentStore handlers.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/vinocave/internal/logging"
	pb "github.com/dmitrijs2005/vinocave/internal/proto"
	"github.com/dmitrijs2005/vinocave/internal/server/models"
	"github.com/dmitrijs2005/vinocave/internal/server/services"
	"google.golang.org/grpc"
)

type OwnerService interface {
	Create(ctx context.Context, name string) (*services.OwnerGrant, error)
	Resolve(ctx context.Context, ownerID string) (*services.OwnerGrant, error)
}

type DocumentService interface {
	Query(ctx context.Context, ownerID, collection, field, value string) ([]*models.Document, error)
	Add(ctx context.Context, ownerID, collection string, data map[string]any) (*models.Document, error)
	Set(ctx context.Context, ownerID, collection, id string, data map[string]any) error
	Delete(ctx context.Context, ownerID, collection, id string) error
}

type BackupService interface {
	PresignBackup(ctx context.Context, ownerID string) (string, string, error)
}

type GRPCServer struct {
	pb.UnimplementedDocumentStoreServer
	address   string
	owners    OwnerService
	documents DocumentService
	backup    BackupService
	metrics   *Metrics
	logger    logging.Logger
	jwtSecret []byte
}

// NewGRPCServer builds the server. metrics may be nil.
func NewGRPCServer(a string, l logging.Logger, ows OwnerService, ds DocumentService, bs BackupService, secretKey string, m *Metrics) (*GRPCServer, error) {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		owners:    ows,
		documents: ds,
		backup:    bs,
		metrics:   m,
		jwtSecret: []byte(secretKey),
	}, nil
}

func (s *GRPCServer) interceptors() []grpc.UnaryServerInterceptor {
	var chain []grpc.UnaryServerInterceptor
	if s.metrics != nil {
		chain = append(chain, s.metrics.UnaryInterceptor)
	}
	return append(chain, s.accessTokenInterceptor)
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.interceptors()...))
	pb.RegisterDocumentStoreServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
