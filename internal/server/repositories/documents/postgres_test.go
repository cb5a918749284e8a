package documents

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/vinocave/internal/common"
	"github.com/dmitrijs2005/vinocave/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

const (
	insertQ = `(?s)^INSERT\s+INTO\s+documents\s*\(collection,\s*id,\s*owner_id,\s*data\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+created_at,\s*updated_at$`
	upsertQ = `(?s)^INSERT\s+INTO\s+documents.*ON\s+CONFLICT\s*\(collection,\s*id\)\s+DO\s+UPDATE.*WHERE\s+documents\.owner_id\s*=\s*EXCLUDED\.owner_id$`
	getQ    = `(?s)^SELECT\s+collection,\s*id,\s*owner_id,\s*data,\s*created_at,\s*updated_at\s+FROM\s+documents\s+WHERE\s+collection\s*=\s*\$1\s+AND\s+id\s*=\s*\$2$`
	listQ   = `(?s)^SELECT\s+.*FROM\s+documents\s+WHERE\s+collection\s*=\s*\$1\s+AND\s+owner_id\s*=\s*\$2\s+ORDER\s+BY\s+created_at,\s*id$`
	deleteQ = `(?s)^DELETE\s+FROM\s+documents\s+WHERE\s+collection\s*=\s*\$1\s+AND\s+id\s*=\s*\$2\s+AND\s+owner_id\s*=\s*\$3$`
)

var docCols = []string{"collection", "id", "owner_id", "data", "created_at", "updated_at"}

func TestInsert(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(insertQ).
		WithArgs(common.CollectionWines, "w1", "o1", []byte(`{"name":"Pétrus","ownerId":"o1"}`)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	doc := &models.Document{Collection: common.CollectionWines, ID: "w1", OwnerID: "o1",
		Data: map[string]any{"name": "Pétrus", "ownerId": "o1"}}
	require.NoError(t, repo.Insert(context.Background(), doc))
	assert.True(t, doc.CreatedAt.Equal(now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_NilDataAndError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQ).
		WithArgs(common.CollectionWines, "w1", "o1", []byte(`{}`)).
		WillReturnError(errors.New("duplicate key"))

	err := repo.Insert(context.Background(), &models.Document{Collection: common.CollectionWines, ID: "w1", OwnerID: "o1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key")
}

func TestUpsert(t *testing.T) {
	tests := []struct {
		name    string
		result  sql.Result
		execErr error
		wantErr error
		anyErr  bool
	}{
		{name: "written", result: sqlmock.NewResult(0, 1)},
		{name: "held by another owner", result: sqlmock.NewResult(0, 0), wantErr: common.ErrorForbidden},
		{name: "exec error", execErr: errors.New("boom"), anyErr: true},
		{name: "rows affected error", result: sqlmock.NewErrorResult(errors.New("no count")), anyErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			exp := mock.ExpectExec(upsertQ).WithArgs(common.CollectionQuantities, "q1", "o1", []byte(`{"count":3}`))
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(tt.result)
			}

			err := repo.Upsert(context.Background(), &models.Document{
				Collection: common.CollectionQuantities, ID: "q1", OwnerID: "o1",
				Data: map[string]any{"count": 3},
			})
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, common.ErrorForbidden)
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGet(t *testing.T) {
	now := time.Now().UTC()

	t.Run("found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(getQ).WithArgs(common.CollectionWines, "w1").
			WillReturnRows(sqlmock.NewRows(docCols).AddRow(common.CollectionWines, "w1", "o1", []byte(`{"name":"Latour","year":2010}`), now, now))

		doc, err := repo.Get(context.Background(), common.CollectionWines, "w1")
		require.NoError(t, err)
		assert.Equal(t, "o1", doc.OwnerID)
		assert.Equal(t, map[string]any{"name": "Latour", "year": float64(2010)}, doc.Data)
	})

	t.Run("empty data", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(getQ).WithArgs(common.CollectionWines, "w1").
			WillReturnRows(sqlmock.NewRows(docCols).AddRow(common.CollectionWines, "w1", "o1", nil, now, now))

		doc, err := repo.Get(context.Background(), common.CollectionWines, "w1")
		require.NoError(t, err)
		assert.Empty(t, doc.Data)
		assert.NotNil(t, doc.Data)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(getQ).WithArgs(common.CollectionWines, "nope").WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(context.Background(), common.CollectionWines, "nope")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("corrupt data", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(getQ).WithArgs(common.CollectionWines, "w1").
			WillReturnRows(sqlmock.NewRows(docCols).AddRow(common.CollectionWines, "w1", "o1", []byte(`{`), now, now))

		_, err := repo.Get(context.Background(), common.CollectionWines, "w1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestListByOwner(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	mock.ExpectQuery(listQ).WithArgs(common.CollectionQuantities, "o1").
		WillReturnRows(sqlmock.NewRows(docCols).
			AddRow(common.CollectionQuantities, "q1", "o1", []byte(`{"year":2018}`), t1, t1).
			AddRow(common.CollectionQuantities, "q2", "o1", []byte(`{"year":2019}`), t2, t2))

	docs, err := repo.ListByOwner(context.Background(), common.CollectionQuantities, "o1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "q1", docs[0].ID)
	assert.Equal(t, "q2", docs[1].ID)
	assert.True(t, docs[1].CreatedAt.Equal(t2))
}

func TestListByOwner_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(listQ).WithArgs(common.CollectionWines, "o1").WillReturnRows(sqlmock.NewRows(docCols))

	docs, err := repo.ListByOwner(context.Background(), common.CollectionWines, "o1")
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestListByOwner_Errors(t *testing.T) {
	t.Run("query", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(listQ).WithArgs(common.CollectionWines, "o1").WillReturnError(errors.New("down"))
		_, err := repo.ListByOwner(context.Background(), common.CollectionWines, "o1")
		assert.Error(t, err)
	})

	t.Run("row error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		now := time.Now()
		mock.ExpectQuery(listQ).WithArgs(common.CollectionWines, "o1").
			WillReturnRows(sqlmock.NewRows(docCols).
				AddRow(common.CollectionWines, "w1", "o1", []byte(`{}`), now, now).
				RowError(0, errors.New("row broke")))
		_, err := repo.ListByOwner(context.Background(), common.CollectionWines, "o1")
		assert.Error(t, err)
	})
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(deleteQ).WithArgs(common.CollectionWines, "w1", "o1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteQ).WithArgs(common.CollectionWines, "w2", "o1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(deleteQ).WithArgs(common.CollectionWines, "w3", "o1").WillReturnError(errors.New("boom"))

	n, err := repo.Delete(context.Background(), common.CollectionWines, "w1", "o1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = repo.Delete(context.Background(), common.CollectionWines, "w2", "o1")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = repo.Delete(context.Background(), common.CollectionWines, "w3", "o1")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
