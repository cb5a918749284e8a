// Package quantities persists the local copy of the bound owner's
// per-vintage holdings.
package quantities

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vinocave/internal/client/models"
	"github.com/dmitrijs2005/vinocave/internal/dbx"
)

type Repository interface {
	Upsert(ctx context.Context, q models.Quantity) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Quantity, error)
	Clear(ctx context.Context) error
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, q models.Quantity) error {
	var created sql.NullTime
	if !q.CreatedAt.IsZero() {
		created = sql.NullTime{Time: q.CreatedAt.UTC(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO quantities (id, owner_id, wine_id, year, count, price, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			wine_id = excluded.wine_id,
			year = excluded.year,
			count = excluded.count,
			price = excluded.price,
			created_at = COALESCE(excluded.created_at, quantities.created_at)
	`, q.ID, q.OwnerID, q.WineID, q.Year, q.Count, q.Price, created)
	if err != nil {
		return fmt.Errorf("failed to upsert quantity %s: %w", q.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM quantities WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete quantity %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Quantity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, wine_id, year, count, price, created_at
		FROM quantities ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to select quantities: %w", err)
	}
	defer rows.Close()

	var result []models.Quantity
	for rows.Next() {
		var q models.Quantity
		var created sql.NullTime
		if err := rows.Scan(&q.ID, &q.OwnerID, &q.WineID, &q.Year, &q.Count, &q.Price, &created); err != nil {
			return nil, fmt.Errorf("failed to scan quantity: %w", err)
		}
		if created.Valid {
			q.CreatedAt = created.Time.In(time.UTC)
		}
		result = append(result, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM quantities`); err != nil {
		return fmt.Errorf("failed to clear quantities: %w", err)
	}
	return nil
}
