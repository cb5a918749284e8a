package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/vinocave/internal/client/binding"
	"github.com/dmitrijs2005/vinocave/internal/client/models"
	"github.com/dmitrijs2005/vinocave/internal/common"
	pb "github.com/dmitrijs2005/vinocave/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

// DefaultRequestTimeout bounds a single RPC when no timeout is configured.
const DefaultRequestTimeout = 12 * time.Second

type ownerCtxKey struct{}

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn
	client      pb.DocumentStoreClient
	state       *binding.State

	mu     sync.Mutex
	tokens map[string]string
}

func NewGRPCClient(endpointURL string, state *binding.State, timeout time.Duration) (*GRPCClient, error) {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	c := &GRPCClient{
		endpointURL: endpointURL,
		timeout:     timeout,
		state:       state,
		tokens:      make(map[string]string),
	}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	conn, err := grpc.NewClient(s.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor))
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewDocumentStoreClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func withOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerCtxKey{}, ownerID)
}

// ownerFor picks the owner a call acts for: an explicit owner attached to
// ctx wins over the bound one.
func (s *GRPCClient) ownerFor(ctx context.Context) string {
	if id, ok := ctx.Value(ownerCtxKey{}).(string); ok && id != "" {
		return id
	}
	if s.state == nil {
		return ""
	}
	id, _ := s.state.OwnerID()
	return id
}

// isPublicMethod lists RPCs that never carry an access token.
func isPublicMethod(method string) bool {
	switch method {
	case pb.DocumentStore_Ping_FullMethodName,
		pb.DocumentStore_CreateOwner_FullMethodName,
		pb.DocumentStore_ResolveOwner_FullMethodName:
		return true
	}
	return false
}

func isTokenExpired(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	return st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error()
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if isPublicMethod(method) {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	ownerID := s.ownerFor(ctx)
	if ownerID == "" {
		return fmt.Errorf("%w: no owner bound", ErrUnauthorized)
	}

	token, err := s.token(ctx, ownerID)
	if err != nil {
		return err
	}

	err = invoker(withAccessToken(ctx, token), method, req, reply, cc, opts...)
	if err == nil || !isTokenExpired(err) {
		return err
	}

	token, err = s.authorize(ctx, ownerID)
	if err != nil {
		return err
	}

	return invoker(withAccessToken(ctx, token), method, req, reply, cc, opts...)
}

func (s *GRPCClient) token(ctx context.Context, ownerID string) (string, error) {
	s.mu.Lock()
	token, ok := s.tokens[ownerID]
	s.mu.Unlock()
	if ok {
		return token, nil
	}
	return s.authorize(ctx, ownerID)
}

// authorize obtains a fresh token for ownerID via ResolveOwner.
func (s *GRPCClient) authorize(ctx context.Context, ownerID string) (string, error) {
	_, err := s.resolve(ctx, ownerID)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[ownerID], nil
}

func (s *GRPCClient) rememberToken(ownerID, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens == nil {
		s.tokens = make(map[string]string)
	}
	s.tokens[ownerID] = token
}

func (s *GRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Ping(ctx, &emptypb.Empty{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.GetFields()[pb.KeyStatus].GetStringValue() != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) CreateOwner(ctx context.Context, name string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	req, err := pb.OwnerRequest{Name: name}.Struct()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	resp, err := s.client.CreateOwner(ctx, req)
	if err != nil {
		return "", s.writeError(err)
	}

	owner, err := pb.ParseOwnerResponse(resp)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	s.rememberToken(owner.OwnerID, owner.AccessToken)
	return owner.OwnerID, nil
}

func (s *GRPCClient) ResolveOwner(ctx context.Context, code string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.resolve(ctx, code)
}

func (s *GRPCClient) resolve(ctx context.Context, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", ErrNotFound
	}

	req, err := pb.OwnerRequest{OwnerID: code}.Struct()
	if err != nil {
		return "", err
	}

	resp, err := s.client.ResolveOwner(ctx, req)
	if err != nil {
		return "", s.mapError(err)
	}

	owner, err := pb.ParseOwnerResponse(resp)
	if err != nil {
		return "", err
	}
	s.rememberToken(owner.OwnerID, owner.AccessToken)
	return owner.OwnerID, nil
}

func (s *GRPCClient) query(ctx context.Context, collection, ownerID string) ([]pb.Document, error) {
	ctx, cancel := s.withTimeout(withOwner(ctx, ownerID))
	defer cancel()

	req, err := pb.QueryRequest{Collection: collection, Field: common.FieldOwnerID, Value: ownerID}.Struct()
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Query(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return pb.ParseQueryResponse(resp)
}

func (s *GRPCClient) FetchWines(ctx context.Context, ownerID string) ([]models.Wine, error) {
	docs, err := s.query(ctx, common.CollectionWines, ownerID)
	if err != nil {
		return nil, err
	}

	wines := make([]models.Wine, 0, len(docs))
	for _, d := range docs {
		w, err := models.WineFromDocument(d.ID, d.Data)
		if err != nil {
			return nil, err
		}
		wines = append(wines, w)
	}
	return wines, nil
}

func (s *GRPCClient) FetchQuantities(ctx context.Context, ownerID string) ([]models.Quantity, error) {
	docs, err := s.query(ctx, common.CollectionQuantities, ownerID)
	if err != nil {
		return nil, err
	}

	quantities := make([]models.Quantity, 0, len(docs))
	for _, d := range docs {
		q, err := models.QuantityFromDocument(d.ID, d.Data, d.CreateTime)
		if err != nil {
			return nil, err
		}
		quantities = append(quantities, q)
	}
	return quantities, nil
}

func (s *GRPCClient) CreateOrUpdateWine(ctx context.Context, wine models.Wine) (string, error) {
	data, err := wine.Document()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if wine.ID == "" {
		id, _, err := s.add(ctx, common.CollectionWines, wine.OwnerID, data)
		return id, err
	}
	if err := s.set(ctx, common.CollectionWines, wine.OwnerID, wine.ID, data); err != nil {
		return "", err
	}
	return wine.ID, nil
}

// CreateQuantity returns q with the id and creation time assigned by the store.
func (s *GRPCClient) CreateQuantity(ctx context.Context, q models.Quantity) (models.Quantity, error) {
	data, err := q.Document()
	if err != nil {
		return models.Quantity{}, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	id, created, err := s.add(ctx, common.CollectionQuantities, q.OwnerID, data)
	if err != nil {
		return models.Quantity{}, err
	}
	q.ID = id
	q.CreatedAt = created
	return q, nil
}

func (s *GRPCClient) UpdateQuantity(ctx context.Context, q models.Quantity) error {
	if q.ID == "" {
		return fmt.Errorf("%w: quantity has no id", ErrWriteFailed)
	}
	data, err := q.Document()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return s.set(ctx, common.CollectionQuantities, q.OwnerID, q.ID, data)
}

func (s *GRPCClient) DeleteWine(ctx context.Context, wineID string) error {
	return s.delete(ctx, common.CollectionWines, wineID)
}

func (s *GRPCClient) DeleteQuantity(ctx context.Context, quantityID string) error {
	return s.delete(ctx, common.CollectionQuantities, quantityID)
}

func (s *GRPCClient) PresignBackup(ctx context.Context) (string, string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.PresignBackup(ctx, &emptypb.Empty{})
	if err != nil {
		return "", "", s.mapError(err)
	}

	p, err := pb.ParsePresignResponse(resp)
	if err != nil {
		return "", "", err
	}
	return p.Key, p.URL, nil
}

func (s *GRPCClient) add(ctx context.Context, collection, ownerID string, data map[string]any) (string, time.Time, error) {
	ctx, cancel := s.withTimeout(withOwner(ctx, ownerID))
	defer cancel()

	req, err := pb.AddRequest{Collection: collection, Data: data}.Struct()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	resp, err := s.client.Add(ctx, req)
	if err != nil {
		return "", time.Time{}, s.writeError(err)
	}

	id, created, err := pb.ParseAddResponse(resp)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return id, created, nil
}

func (s *GRPCClient) set(ctx context.Context, collection, ownerID, id string, data map[string]any) error {
	ctx, cancel := s.withTimeout(withOwner(ctx, ownerID))
	defer cancel()

	req, err := pb.SetRequest{Collection: collection, ID: id, Data: data}.Struct()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	if _, err := s.client.Set(ctx, req); err != nil {
		return s.writeError(err)
	}
	return nil
}

func (s *GRPCClient) delete(ctx context.Context, collection, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	req, err := pb.DeleteRequest{Collection: collection, ID: id}.Struct()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	if _, err := s.client.Delete(ctx, req); err != nil {
		return s.writeError(err)
	}
	return nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{ErrNotFound, ErrUnauthorized, ErrUnavailable, ErrWriteFailed} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.NotFound:
		return ErrNotFound
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

func (s *GRPCClient) writeError(err error) error {
	mapped := s.mapError(err)
	if errors.Is(mapped, ErrWriteFailed) {
		return mapped
	}
	return fmt.Errorf("%w: %w", ErrWriteFailed, mapped)
}
