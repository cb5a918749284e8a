package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/vinocave/internal/common"
	"github.com/dmitrijs2005/vinocave/internal/dbx"
	"github.com/dmitrijs2005/vinocave/internal/server/models"
	"github.com/dmitrijs2005/vinocave/internal/server/repositories/documents"
	"github.com/dmitrijs2005/vinocave/internal/server/repositories/owners"
)

type fakeOwnersRepo struct {
	owners    map[string]*models.Owner
	createErr error
	getErr    error
}

func newFakeOwnersRepo() *fakeOwnersRepo {
	return &fakeOwnersRepo{owners: map[string]*models.Owner{}}
}

func (f *fakeOwnersRepo) Create(_ context.Context, o *models.Owner) (*models.Owner, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	o.CreatedAt = time.Now()
	f.owners[o.ID] = o
	return o, nil
}

func (f *fakeOwnersRepo) Get(_ context.Context, id string) (*models.Owner, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	o, ok := f.owners[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return o, nil
}

type docKey struct{ collection, id string }

type fakeDocumentsRepo struct {
	docs   map[docKey]*models.Document
	order  []docKey
	err    error
	getErr error
}

func newFakeDocumentsRepo() *fakeDocumentsRepo {
	return &fakeDocumentsRepo{docs: map[docKey]*models.Document{}}
}

func (f *fakeDocumentsRepo) put(d *models.Document) {
	k := docKey{d.Collection, d.ID}
	if _, ok := f.docs[k]; !ok {
		f.order = append(f.order, k)
	}
	f.docs[k] = d
}

func (f *fakeDocumentsRepo) Insert(_ context.Context, d *models.Document) error {
	if f.err != nil {
		return f.err
	}
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	f.put(d)
	return nil
}

func (f *fakeDocumentsRepo) Upsert(_ context.Context, d *models.Document) error {
	if f.err != nil {
		return f.err
	}
	if cur, ok := f.docs[docKey{d.Collection, d.ID}]; ok && cur.OwnerID != d.OwnerID {
		return common.ErrorForbidden
	}
	f.put(d)
	return nil
}

func (f *fakeDocumentsRepo) Get(_ context.Context, collection, id string) (*models.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	d, ok := f.docs[docKey{collection, id}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return d, nil
}

func (f *fakeDocumentsRepo) ListByOwner(_ context.Context, collection, ownerID string) ([]*models.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []*models.Document{}
	for _, k := range f.order {
		d, ok := f.docs[k]
		if ok && k.collection == collection && d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDocumentsRepo) Delete(_ context.Context, collection, id, ownerID string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	k := docKey{collection, id}
	d, ok := f.docs[k]
	if !ok || d.OwnerID != ownerID {
		return 0, nil
	}
	delete(f.docs, k)
	return 1, nil
}

type fakeRepoManager struct {
	owners    *fakeOwnersRepo
	documents *fakeDocumentsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{owners: newFakeOwnersRepo(), documents: newFakeDocumentsRepo()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Owners(dbx.DBTX) owners.Repository           { return m.owners }
func (m *fakeRepoManager) Documents(dbx.DBTX) documents.Repository     { return m.documents }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}
