// Package wines persists the local copy of the bound owner's wines.
package wines

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/vinocave/internal/client/models"
	"github.com/dmitrijs2005/vinocave/internal/dbx"
)

type Repository interface {
	Upsert(ctx context.Context, w models.Wine) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Wine, error)
	Clear(ctx context.Context) error
}

// SQLiteRepository implements Repository over a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Upsert inserts the wine or updates it in place, keeping its original position.
func (r *SQLiteRepository) Upsert(ctx context.Context, w models.Wine) error {
	query := `
		INSERT INTO wines (id, owner_id, type, region, appellation, name, producer, info, country, size, us_appellation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			type = excluded.type,
			region = excluded.region,
			appellation = excluded.appellation,
			name = excluded.name,
			producer = excluded.producer,
			info = excluded.info,
			country = excluded.country,
			size = excluded.size,
			us_appellation = excluded.us_appellation
	`
	_, err := r.db.ExecContext(ctx, query, w.ID, w.OwnerID, int(w.Type), int(w.Region), int(w.Appellation),
		w.Name, w.Producer, w.Info, int(w.Country), int(w.Size), int(w.USAppellation))
	if err != nil {
		return fmt.Errorf("failed to upsert wine %s: %w", w.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM wines WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete wine %s: %w", id, err)
	}
	return nil
}

// List returns wines in insertion order.
func (r *SQLiteRepository) List(ctx context.Context) ([]models.Wine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, type, region, appellation, name, producer, info, country, size, us_appellation
		FROM wines ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to select wines: %w", err)
	}
	defer rows.Close()

	var result []models.Wine
	for rows.Next() {
		w, err := scanWine(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM wines`); err != nil {
		return fmt.Errorf("failed to clear wines: %w", err)
	}
	return nil
}

func scanWine(s dbx.Scanner) (models.Wine, error) {
	var w models.Wine
	var typ, region, appellation, country, size, usAppellation int
	err := s.Scan(&w.ID, &w.OwnerID, &typ, &region, &appellation, &w.Name, &w.Producer, &w.Info,
		&country, &size, &usAppellation)
	if err != nil {
		return models.Wine{}, fmt.Errorf("failed to scan wine: %w", err)
	}
	w.Type = models.WineType(typ)
	w.Region = models.Region(region)
	w.Appellation = models.Appellation(appellation)
	w.Country = models.Country(country)
	w.Size = models.Size(size)
	w.USAppellation = models.USAppellation(usAppellation)
	return w, nil
}
