// Package mirror composes the wines and quantities repositories into the
// write-through store behind the in-memory cache.
package mirror

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/vinocave/internal/client/models"
	"github.com/dmitrijs2005/vinocave/internal/client/repositories/quantities"
	"github.com/dmitrijs2005/vinocave/internal/client/repositories/wines"
	"github.com/dmitrijs2005/vinocave/internal/dbx"
)

// SQLiteMirror implements cache.Mirror. Multi-row operations run in a
// single transaction so a crash never leaves half a cellar on disk.
type SQLiteMirror struct {
	db         *sql.DB
	wines      wines.Repository
	quantities quantities.Repository
}

func NewSQLiteMirror(db *sql.DB) *SQLiteMirror {
	return &SQLiteMirror{
		db:         db,
		wines:      wines.NewSQLiteRepository(db),
		quantities: quantities.NewSQLiteRepository(db),
	}
}

func (m *SQLiteMirror) ReplaceAll(ctx context.Context, ws []models.Wine, qs []models.Quantity) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		wr := wines.NewSQLiteRepository(tx)
		qr := quantities.NewSQLiteRepository(tx)

		if err := qr.Clear(ctx); err != nil {
			return err
		}
		if err := wr.Clear(ctx); err != nil {
			return err
		}
		for _, w := range ws {
			if err := wr.Upsert(ctx, w); err != nil {
				return err
			}
		}
		for _, q := range qs {
			if err := qr.Upsert(ctx, q); err != nil {
				return err
			}
		}
		return nil
	})
}

func (m *SQLiteMirror) UpsertWine(ctx context.Context, w models.Wine) error {
	return m.wines.Upsert(ctx, w)
}

func (m *SQLiteMirror) DeleteWine(ctx context.Context, id string) error {
	return m.wines.Delete(ctx, id)
}

func (m *SQLiteMirror) UpsertQuantity(ctx context.Context, q models.Quantity) error {
	return m.quantities.Upsert(ctx, q)
}

func (m *SQLiteMirror) DeleteQuantity(ctx context.Context, id string) error {
	return m.quantities.Delete(ctx, id)
}

func (m *SQLiteMirror) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := quantities.NewSQLiteRepository(tx).Clear(ctx); err != nil {
			return err
		}
		return wines.NewSQLiteRepository(tx).Clear(ctx)
	})
}

func (m *SQLiteMirror) Load(ctx context.Context) ([]models.Wine, []models.Quantity, error) {
	ws, err := m.wines.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	qs, err := m.quantities.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	return ws, qs, nil
}
