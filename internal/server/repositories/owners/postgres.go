// Package owners provides the PostgreSQL-backed owner repository.
package owners

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vinocave/internal/common"
	"github.com/dmitrijs2005/vinocave/internal/dbx"
	"github.com/dmitrijs2005/vinocave/internal/server/models"
)

// PostgresRepository implements owner storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts owner and fills in CreatedAt.
func (r *PostgresRepository) Create(ctx context.Context, owner *models.Owner) (*models.Owner, error) {
	query :=
		`INSERT INTO owners (id, name)
		 VALUES ($1, $2)
		 RETURNING created_at`

	if err := r.db.QueryRowContext(ctx, query, owner.ID, owner.Name).Scan(&owner.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return owner, nil
}

// Get returns the owner with id, or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Owner, error) {
	query :=
		`SELECT id, name, created_at FROM owners
		 WHERE id = $1`

	owner := &models.Owner{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&owner.ID, &owner.Name, &owner.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return owner, nil
}
