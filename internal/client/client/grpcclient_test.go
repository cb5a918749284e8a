package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/vinocave/internal/client/binding"
	"github.com/dmitrijs2005/vinocave/internal/client/models"
	"github.com/dmitrijs2005/vinocave/internal/common"
	pb "github.com/dmitrijs2005/vinocave/internal/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

/*************
 * Fake pb client
 *************/

type fakePB struct {
	lastResolveReq *structpb.Struct
	lastCreateReq  *structpb.Struct
	lastQueryReq   *structpb.Struct
	lastAddReq     *structpb.Struct
	lastSetReq     *structpb.Struct
	lastDeleteReq  *structpb.Struct
	resolveCalls   int

	pingResp *structpb.Struct
	pingErr  error

	createResp *structpb.Struct
	createErr  error

	resolveResp *structpb.Struct
	resolveErr  error

	queryResp *structpb.Struct
	queryErr  error

	addResp *structpb.Struct
	addErr  error

	setErr    error
	deleteErr error

	presignResp *structpb.Struct
	presignErr  error
}

func (f *fakePB) Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return f.pingResp, f.pingErr
}
func (f *fakePB) CreateOwner(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	f.lastCreateReq = in
	return f.createResp, f.createErr
}
func (f *fakePB) ResolveOwner(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	f.resolveCalls++
	f.lastResolveReq = in
	return f.resolveResp, f.resolveErr
}
func (f *fakePB) Query(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	f.lastQueryReq = in
	return f.queryResp, f.queryErr
}
func (f *fakePB) Add(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	f.lastAddReq = in
	return f.addResp, f.addErr
}
func (f *fakePB) Set(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	f.lastSetReq = in
	return &emptypb.Empty{}, f.setErr
}
func (f *fakePB) Delete(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	f.lastDeleteReq = in
	return &emptypb.Empty{}, f.deleteErr
}
func (f *fakePB) PresignBackup(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return f.presignResp, f.presignErr
}

func mustStruct(t *testing.T) func(*structpb.Struct, error) *structpb.Struct {
	return func(s *structpb.Struct, err error) *structpb.Struct {
		t.Helper()
		require.NoError(t, err)
		return s
	}
}

func ownerResp(t *testing.T, ownerID, token string) *structpb.Struct {
	return mustStruct(t)(pb.OwnerResponse{OwnerID: ownerID, AccessToken: token}.Struct())
}

func tokenFrom(t *testing.T, ctx context.Context) string {
	t.Helper()
	md, _ := metadata.FromOutgoingContext(ctx)
	toks := md.Get(common.AccessTokenHeaderName)
	require.Len(t, toks, 1)
	return toks[0]
}

/*************
 * accessTokenInterceptor tests
 *************/

func TestInterceptor_UsesCachedTokenForBoundOwner(t *testing.T) {
	state := binding.New()
	state.Bind("o1")
	f := &fakePB{}
	c := &GRPCClient{client: f, state: state, tokens: map[string]string{"o1": "T1"}}

	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		require.Equal(t, "T1", tokenFrom(t, ctx))
		return nil
	}

	require.NoError(t, c.accessTokenInterceptor(context.Background(), pb.DocumentStore_Query_FullMethodName, nil, nil, nil, invoker))
	require.Zero(t, f.resolveCalls)
}

func TestInterceptor_AuthorizesLazily(t *testing.T) {
	f := &fakePB{resolveResp: ownerResp(t, "o2", "T2")}
	c := &GRPCClient{client: f, state: binding.New()}

	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		require.Equal(t, "T2", tokenFrom(t, ctx))
		return nil
	}

	err := c.accessTokenInterceptor(withOwner(context.Background(), "o2"), pb.DocumentStore_Add_FullMethodName, nil, nil, nil, invoker)
	require.NoError(t, err)
	require.Equal(t, 1, f.resolveCalls)
	require.Equal(t, "o2", pb.ParseOwnerRequest(f.lastResolveReq).OwnerID)
}

func TestInterceptor_RefreshesTokenOnExpiredAndRetries(t *testing.T) {
	state := binding.New()
	state.Bind("o1")
	f := &fakePB{resolveResp: ownerResp(t, "o1", "T2")}
	c := &GRPCClient{client: f, state: state, tokens: map[string]string{"o1": "T1"}}

	callCount := 0
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		callCount++
		if callCount == 1 {
			require.Equal(t, "T1", tokenFrom(t, ctx))
			return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
		}
		require.Equal(t, "T2", tokenFrom(t, ctx))
		return nil
	}

	err := c.accessTokenInterceptor(context.Background(), pb.DocumentStore_Set_FullMethodName, nil, nil, nil, invoker)
	require.NoError(t, err)
	require.Equal(t, 2, callCount)
	require.Equal(t, "T2", c.tokens["o1"])
}

func TestInterceptor_UnauthenticatedButDifferentMessage_NoRefresh(t *testing.T) {
	state := binding.New()
	state.Bind("o1")
	f := &fakePB{}
	c := &GRPCClient{client: f, state: state, tokens: map[string]string{"o1": "T1"}}
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, "some other reason")
	}
	err := c.accessTokenInterceptor(context.Background(), pb.DocumentStore_Query_FullMethodName, nil, nil, nil, invoker)
	require.Error(t, err)
	require.Zero(t, f.resolveCalls)
}

func TestInterceptor_PublicMethodsSkipTokens(t *testing.T) {
	c := &GRPCClient{client: &fakePB{}, state: binding.New()}
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		require.Empty(t, md.Get(common.AccessTokenHeaderName))
		return nil
	}
	for _, m := range []string{pb.DocumentStore_Ping_FullMethodName, pb.DocumentStore_CreateOwner_FullMethodName, pb.DocumentStore_ResolveOwner_FullMethodName} {
		require.NoError(t, c.accessTokenInterceptor(context.Background(), m, nil, nil, nil, invoker))
	}
}

func TestInterceptor_UnboundFailsWithoutCalling(t *testing.T) {
	c := &GRPCClient{client: &fakePB{}, state: binding.New()}
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		t.Fatal("invoker must not be called")
		return nil
	}
	err := c.accessTokenInterceptor(context.Background(), pb.DocumentStore_Delete_FullMethodName, nil, nil, nil, invoker)
	require.ErrorIs(t, err, ErrUnauthorized)
}

/*************
 * mapError tests
 *************/

func TestMapError(t *testing.T) {
	c := &GRPCClient{}

	require.Equal(t, ErrNotFound, c.mapError(status.Error(codes.NotFound, "x")))
	require.Equal(t, ErrUnauthorized, c.mapError(status.Error(codes.Unauthenticated, "x")))
	require.Equal(t, ErrUnauthorized, c.mapError(status.Error(codes.PermissionDenied, "x")))
	require.Equal(t, ErrUnavailable, c.mapError(status.Error(codes.Unavailable, "x")))
	require.Equal(t, ErrUnavailable, c.mapError(status.Error(codes.DeadlineExceeded, "x")))
	require.ErrorContains(t, c.mapError(errors.New("plain")), "rpc error:")
	require.NoError(t, c.mapError(nil))

	werr := c.writeError(status.Error(codes.Unavailable, "x"))
	require.ErrorIs(t, werr, ErrWriteFailed)
	require.ErrorIs(t, werr, ErrUnavailable)
}

/*************
 * Ping / owners
 *************/

func TestPing(t *testing.T) {
	ok := mustStruct(t)(structpb.NewStruct(map[string]any{pb.KeyStatus: "OK"}))
	notOK := mustStruct(t)(structpb.NewStruct(map[string]any{pb.KeyStatus: "DEGRADED"}))

	require.NoError(t, (&GRPCClient{client: &fakePB{pingResp: ok}}).Ping(context.Background()))
	require.ErrorIs(t, (&GRPCClient{client: &fakePB{pingResp: notOK}}).Ping(context.Background()), ErrUnavailable)
	require.ErrorIs(t, (&GRPCClient{client: &fakePB{pingErr: status.Error(codes.Unavailable, "down")}}).Ping(context.Background()), ErrUnavailable)
}

func TestCreateOwner_StoresToken(t *testing.T) {
	f := &fakePB{createResp: ownerResp(t, "new-owner", "TOK")}
	c := &GRPCClient{client: f}

	id, err := c.CreateOwner(context.Background(), "Cave de Ben")
	require.NoError(t, err)
	require.Equal(t, "new-owner", id)
	require.Equal(t, "TOK", c.tokens["new-owner"])
	require.Equal(t, "Cave de Ben", pb.ParseOwnerRequest(f.lastCreateReq).Name)
}

func TestCreateOwner_Failure(t *testing.T) {
	c := &GRPCClient{client: &fakePB{createErr: status.Error(codes.Internal, "db down")}}
	_, err := c.CreateOwner(context.Background(), "x")
	require.ErrorIs(t, err, ErrWriteFailed)
}

func TestResolveOwner(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		f := &fakePB{resolveResp: ownerResp(t, "abc", "TOK")}
		c := &GRPCClient{client: f}
		id, err := c.ResolveOwner(context.Background(), "  abc ")
		require.NoError(t, err)
		require.Equal(t, "abc", id)
		require.Equal(t, "abc", pb.ParseOwnerRequest(f.lastResolveReq).OwnerID)
	})

	t.Run("not found", func(t *testing.T) {
		c := &GRPCClient{client: &fakePB{resolveErr: status.Error(codes.NotFound, "no owner")}}
		_, err := c.ResolveOwner(context.Background(), "zzz")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty code", func(t *testing.T) {
		f := &fakePB{}
		c := &GRPCClient{client: f}
		_, err := c.ResolveOwner(context.Background(), " ")
		require.ErrorIs(t, err, ErrNotFound)
		require.Zero(t, f.resolveCalls)
	})
}

/*************
 * Fetch
 *************/

func TestFetchWines_DecodesDocuments(t *testing.T) {
	resp := mustStruct(t)(pb.QueryResponse([]pb.Document{
		{ID: "w1", Data: map[string]any{"ownerId": "o1", "name": "Chablis", "type": float64(1)}},
		{ID: "w2", Data: map[string]any{"ownerId": "o1", "name": "Pomerol", "region": float64(1)}},
	}))
	f := &fakePB{queryResp: resp}
	c := &GRPCClient{client: f}

	wines, err := c.FetchWines(context.Background(), "o1")
	require.NoError(t, err)
	require.Len(t, wines, 2)
	assert.Equal(t, models.Wine{ID: "w1", OwnerID: "o1", Name: "Chablis", Type: models.WineTypeWhite}, wines[0])
	assert.Equal(t, models.RegionBordeaux, wines[1].Region)

	q := pb.ParseQueryRequest(f.lastQueryReq)
	assert.Equal(t, pb.QueryRequest{Collection: common.CollectionWines, Field: common.FieldOwnerID, Value: "o1"}, q)
}

func TestFetchQuantities_KeepsCreateTime(t *testing.T) {
	created := time.Date(2023, 5, 6, 7, 8, 9, 0, time.UTC)
	resp := mustStruct(t)(pb.QueryResponse([]pb.Document{
		{ID: "q1", Data: map[string]any{"ownerId": "o1", "wineId": "w1", "year": float64(2018), "quantity": float64(3), "price": 25.5}, CreateTime: created},
	}))
	c := &GRPCClient{client: &fakePB{queryResp: resp}}

	qs, err := c.FetchQuantities(context.Background(), "o1")
	require.NoError(t, err)
	require.Equal(t, []models.Quantity{{ID: "q1", OwnerID: "o1", WineID: "w1", Year: 2018, Count: 3, Price: 25.5, CreatedAt: created}}, qs)
}

func TestFetch_MapsError(t *testing.T) {
	c := &GRPCClient{client: &fakePB{queryErr: status.Error(codes.Unavailable, "x")}}
	_, err := c.FetchWines(context.Background(), "o1")
	require.ErrorIs(t, err, ErrUnavailable)
}

/*************
 * Writes
 *************/

func TestCreateOrUpdateWine_BranchesOnID(t *testing.T) {
	f := &fakePB{addResp: mustStruct(t)(pb.AddResponse("minted", time.Time{}))}
	c := &GRPCClient{client: f}

	id, err := c.CreateOrUpdateWine(context.Background(), models.Wine{OwnerID: "o1", Name: "Sancerre"})
	require.NoError(t, err)
	require.Equal(t, "minted", id)
	add := pb.ParseAddRequest(f.lastAddReq)
	require.Equal(t, common.CollectionWines, add.Collection)
	require.Equal(t, "Sancerre", add.Data["name"])
	require.Nil(t, f.lastSetReq)

	id, err = c.CreateOrUpdateWine(context.Background(), models.Wine{ID: "w9", OwnerID: "o1", Name: "Sancerre"})
	require.NoError(t, err)
	require.Equal(t, "w9", id)
	set := pb.ParseSetRequest(f.lastSetReq)
	require.Equal(t, "w9", set.ID)
	require.Equal(t, common.CollectionWines, set.Collection)
}

func TestCreateOrUpdateWine_Failure(t *testing.T) {
	c := &GRPCClient{client: &fakePB{setErr: status.Error(codes.PermissionDenied, "not yours")}}
	_, err := c.CreateOrUpdateWine(context.Background(), models.Wine{ID: "w1", OwnerID: "o1"})
	require.ErrorIs(t, err, ErrWriteFailed)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestQuantityWrites(t *testing.T) {
	created := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	f := &fakePB{addResp: mustStruct(t)(pb.AddResponse("q-new", created))}
	c := &GRPCClient{client: f}
	q := models.Quantity{OwnerID: "o1", WineID: "w1", Year: 2019, Count: 2, Price: 14}

	stored, err := c.CreateQuantity(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, "q-new", stored.ID)
	require.True(t, created.Equal(stored.CreatedAt), "creation time comes from the store")
	require.Equal(t, 2, stored.Count)
	require.Equal(t, common.CollectionQuantities, pb.ParseAddRequest(f.lastAddReq).Collection)

	require.ErrorIs(t, c.UpdateQuantity(context.Background(), q), ErrWriteFailed, "update without id")

	q.ID = stored.ID
	q.Count = 1
	require.NoError(t, c.UpdateQuantity(context.Background(), q))
	set := pb.ParseSetRequest(f.lastSetReq)
	require.Equal(t, "q-new", set.ID)
	require.Equal(t, float64(1), set.Data["quantity"])
}

func TestDeletes(t *testing.T) {
	f := &fakePB{}
	c := &GRPCClient{client: f}

	require.NoError(t, c.DeleteWine(context.Background(), "w1"))
	require.Equal(t, pb.DeleteRequest{Collection: common.CollectionWines, ID: "w1"}, pb.ParseDeleteRequest(f.lastDeleteReq))

	require.NoError(t, c.DeleteQuantity(context.Background(), "q1"))
	require.Equal(t, pb.DeleteRequest{Collection: common.CollectionQuantities, ID: "q1"}, pb.ParseDeleteRequest(f.lastDeleteReq))

	f.deleteErr = status.Error(codes.Unavailable, "x")
	err := c.DeleteQuantity(context.Background(), "q1")
	require.ErrorIs(t, err, ErrWriteFailed)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestPresignBackup(t *testing.T) {
	f := &fakePB{presignResp: mustStruct(t)(pb.PresignResponse{Key: "owners/o1/backup.json", URL: "https://s3/put"}.Struct())}
	c := &GRPCClient{client: f}

	key, url, err := c.PresignBackup(context.Background())
	require.NoError(t, err)
	require.Equal(t, "owners/o1/backup.json", key)
	require.Equal(t, "https://s3/put", url)

	f.presignErr = status.Error(codes.Unauthenticated, "x")
	_, _, err = c.PresignBackup(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
}
