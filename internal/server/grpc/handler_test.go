package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/vinocave/internal/common"
	pb "github.com/dmitrijs2005/vinocave/internal/proto"
	"github.com/dmitrijs2005/vinocave/internal/server/models"
	"github.com/dmitrijs2005/vinocave/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

// ---- fakes ----

type fakeOwners struct {
	grant *services.OwnerGrant
	err   error
	got   string
}

func (f *fakeOwners) Create(_ context.Context, name string) (*services.OwnerGrant, error) {
	f.got = name
	return f.grant, f.err
}

func (f *fakeOwners) Resolve(_ context.Context, id string) (*services.OwnerGrant, error) {
	f.got = id
	return f.grant, f.err
}

type fakeDocuments struct {
	DocumentService
	docs  []*models.Document
	doc   *models.Document
	err   error
	calls []string
}

func (f *fakeDocuments) Query(_ context.Context, ownerID, collection, field, value string) ([]*models.Document, error) {
	f.calls = append(f.calls, fmt.Sprintf("query %s %s %s=%s", ownerID, collection, field, value))
	return f.docs, f.err
}

func (f *fakeDocuments) Add(_ context.Context, ownerID, collection string, data map[string]any) (*models.Document, error) {
	f.calls = append(f.calls, fmt.Sprintf("add %s %s %v", ownerID, collection, data["name"]))
	return f.doc, f.err
}

func (f *fakeDocuments) Set(_ context.Context, ownerID, collection, id string, data map[string]any) error {
	f.calls = append(f.calls, fmt.Sprintf("set %s %s/%s %v", ownerID, collection, id, data["name"]))
	return f.err
}

func (f *fakeDocuments) Delete(_ context.Context, ownerID, collection, id string) error {
	f.calls = append(f.calls, fmt.Sprintf("delete %s %s/%s", ownerID, collection, id))
	return f.err
}

type fakeBackup struct {
	key, url string
	err      error
}

func (f *fakeBackup) PresignBackup(context.Context, string) (string, string, error) {
	return f.key, f.url, f.err
}

// ---- helpers ----

func newServer(o *fakeOwners, d *fakeDocuments, b *fakeBackup) *GRPCServer {
	return &GRPCServer{
		address:   "127.0.0.1:0",
		owners:    o,
		documents: d,
		backup:    b,
		logger:    nopLogger{},
		jwtSecret: []byte("k"),
	}
}

func asOwner(id string) context.Context {
	return context.WithValue(context.Background(), ownerIDKey, id)
}

// ---- tests ----

func TestPing_OK(t *testing.T) {
	s := newServer(&fakeOwners{}, &fakeDocuments{}, &fakeBackup{})
	resp, err := s.Ping(context.Background(), &emptypb.Empty{})
	require.NoError(t, err)
	assert.Equal(t, "OK", resp.GetFields()[pb.KeyStatus].GetStringValue())
}

func TestCreateAndResolveOwner(t *testing.T) {
	o := &fakeOwners{grant: &services.OwnerGrant{OwnerID: "o1", AccessToken: "tok"}}
	s := newServer(o, &fakeDocuments{}, &fakeBackup{})

	in, err := pb.OwnerRequest{Name: "Ma cave"}.Struct()
	require.NoError(t, err)
	out, err := s.CreateOwner(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Ma cave", o.got)
	resp, err := pb.ParseOwnerResponse(out)
	require.NoError(t, err)
	assert.Equal(t, pb.OwnerResponse{OwnerID: "o1", AccessToken: "tok"}, resp)

	in, err = pb.OwnerRequest{OwnerID: "o1"}.Struct()
	require.NoError(t, err)
	_, err = s.ResolveOwner(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "o1", o.got)
}

func TestResolveOwner_NotFound(t *testing.T) {
	s := newServer(&fakeOwners{err: fmt.Errorf("resolve: %w", common.ErrorNotFound)}, &fakeDocuments{}, &fakeBackup{})
	in, _ := pb.OwnerRequest{OwnerID: "ghost"}.Struct()
	_, err := s.ResolveOwner(context.Background(), in)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestQuery(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	d := &fakeDocuments{docs: []*models.Document{
		{ID: "w1", Data: map[string]any{"name": "Latour", common.FieldOwnerID: "o1"}, CreatedAt: created},
	}}
	s := newServer(&fakeOwners{}, d, &fakeBackup{})

	in, err := pb.QueryRequest{Collection: common.CollectionWines, Field: common.FieldOwnerID, Value: "o1"}.Struct()
	require.NoError(t, err)
	out, err := s.Query(asOwner("o1"), in)
	require.NoError(t, err)

	docs, err := pb.ParseQueryResponse(out)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "w1", docs[0].ID)
	assert.Equal(t, "Latour", docs[0].Data["name"])
	assert.True(t, docs[0].CreateTime.Equal(created))
	assert.Equal(t, []string{"query o1 Wines ownerId=o1"}, d.calls)
}

func TestDocumentRPCs_RequireOwner(t *testing.T) {
	s := newServer(&fakeOwners{}, &fakeDocuments{}, &fakeBackup{})
	ctx := context.Background()
	in, _ := pb.DeleteRequest{Collection: common.CollectionWines, ID: "w1"}.Struct()

	_, err := s.Query(ctx, in)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	_, err = s.Add(ctx, in)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	_, err = s.Set(ctx, in)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	_, err = s.Delete(ctx, in)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	_, err = s.PresignBackup(ctx, &emptypb.Empty{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestAddSetDelete(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	d := &fakeDocuments{doc: &models.Document{ID: "new-id", CreatedAt: created}}
	s := newServer(&fakeOwners{}, d, &fakeBackup{})
	ctx := asOwner("o1")
	data := map[string]any{"name": "Latour", common.FieldOwnerID: "o1"}

	in, err := pb.AddRequest{Collection: common.CollectionWines, Data: data}.Struct()
	require.NoError(t, err)
	out, err := s.Add(ctx, in)
	require.NoError(t, err)
	id, gotCreated, err := pb.ParseAddResponse(out)
	require.NoError(t, err)
	assert.Equal(t, "new-id", id)
	assert.True(t, created.Equal(gotCreated))

	in, err = pb.SetRequest{Collection: common.CollectionWines, ID: "w1", Data: data}.Struct()
	require.NoError(t, err)
	_, err = s.Set(ctx, in)
	require.NoError(t, err)

	in, err = pb.DeleteRequest{Collection: common.CollectionWines, ID: "w1"}.Struct()
	require.NoError(t, err)
	_, err = s.Delete(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"add o1 Wines Latour",
		"set o1 Wines/w1 Latour",
		"delete o1 Wines/w1",
	}, d.calls)
}

func TestPresignBackup(t *testing.T) {
	s := newServer(&fakeOwners{}, &fakeDocuments{}, &fakeBackup{key: "owners/o1/k.json", url: "https://s3/put"})
	out, err := s.PresignBackup(asOwner("o1"), &emptypb.Empty{})
	require.NoError(t, err)
	resp, err := pb.ParsePresignResponse(out)
	require.NoError(t, err)
	assert.Equal(t, pb.PresignResponse{Key: "owners/o1/k.json", URL: "https://s3/put"}, resp)

	s = newServer(&fakeOwners{}, &fakeDocuments{}, &fakeBackup{err: errors.New("s3 down")})
	_, err = s.PresignBackup(asOwner("o1"), &emptypb.Empty{})
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
		msg  string
	}{
		{err: fmt.Errorf("x: %w", common.ErrorNotFound), code: codes.NotFound, msg: "not found"},
		{err: fmt.Errorf("%w: bad collection", common.ErrorValidation), code: codes.InvalidArgument},
		{err: fmt.Errorf("x: %w", common.ErrorForbidden), code: codes.PermissionDenied, msg: "forbidden"},
		{err: common.ErrTokenExpired, code: codes.Unauthenticated, msg: common.ErrTokenExpired.Error()},
		{err: common.ErrInvalidToken, code: codes.Unauthenticated, msg: "unauthorized"},
		{err: errors.New("db password is hunter2"), code: codes.Internal, msg: "internal error"},
	}
	s := newServer(&fakeOwners{}, &fakeDocuments{}, &fakeBackup{})
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			st := status.Convert(s.mapError(context.Background(), "Test", tt.err))
			assert.Equal(t, tt.code, st.Code())
			if tt.msg != "" {
				assert.Equal(t, tt.msg, st.Message())
			}
		})
	}
}

func TestDocumentErrors_AreMapped(t *testing.T) {
	d := &fakeDocuments{err: fmt.Errorf("set: %w", common.ErrorForbidden)}
	s := newServer(&fakeOwners{}, d, &fakeBackup{})
	in, _ := pb.SetRequest{Collection: common.CollectionWines, ID: "w1", Data: map[string]any{}}.Struct()
	_, err := s.Set(asOwner("o1"), in)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	d.err = fmt.Errorf("%w: bad", common.ErrorValidation)
	_, err = s.Query(asOwner("o1"), in)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
