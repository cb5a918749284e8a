// Package documents stores collection documents in PostgreSQL as JSONB,
// keyed by (collection, id) and scoped by owner.
package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vinocave/internal/common"
	"github.com/dmitrijs2005/vinocave/internal/dbx"
	"github.com/dmitrijs2005/vinocave/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func encodeData(data map[string]any) ([]byte, error) {
	if data == nil {
		data = map[string]any{}
	}
	return json.Marshal(data)
}

func decodeData(raw []byte) (map[string]any, error) {
	data := map[string]any{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// Insert stores a new document and fills in its timestamps.
func (r *PostgresRepository) Insert(ctx context.Context, doc *models.Document) error {
	raw, err := encodeData(doc.Data)
	if err != nil {
		return fmt.Errorf("encode data: %w", err)
	}

	query :=
		`INSERT INTO documents (collection, id, owner_id, data)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query, doc.Collection, doc.ID, doc.OwnerID, raw).
		Scan(&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Upsert creates or replaces a document. A document held by another owner is
// left untouched and common.ErrorForbidden is returned.
func (r *PostgresRepository) Upsert(ctx context.Context, doc *models.Document) error {
	raw, err := encodeData(doc.Data)
	if err != nil {
		return fmt.Errorf("encode data: %w", err)
	}

	query :=
		`INSERT INTO documents (collection, id, owner_id, data)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (collection, id) DO UPDATE
		 SET data = EXCLUDED.data, updated_at = now()
		 WHERE documents.owner_id = EXCLUDED.owner_id`

	res, err := r.db.ExecContext(ctx, query, doc.Collection, doc.ID, doc.OwnerID, raw)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorForbidden
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, collection, id string) (*models.Document, error) {
	query :=
		`SELECT collection, id, owner_id, data, created_at, updated_at
		 FROM documents
		 WHERE collection = $1 AND id = $2`

	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, collection, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc, nil
}

// ListByOwner returns every document of collection held by ownerID, oldest first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, collection, ownerID string) ([]*models.Document, error) {
	query :=
		`SELECT collection, id, owner_id, data, created_at, updated_at
		 FROM documents
		 WHERE collection = $1 AND owner_id = $2
		 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, collection, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Delete removes the document if ownerID holds it and reports how many rows went away.
func (r *PostgresRepository) Delete(ctx context.Context, collection, id, ownerID string) (int64, error) {
	query :=
		`DELETE FROM documents
		 WHERE collection = $1 AND id = $2 AND owner_id = $3`

	res, err := r.db.ExecContext(ctx, query, collection, id, ownerID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func scanDocument(s dbx.Scanner) (*models.Document, error) {
	var (
		doc models.Document
		raw []byte
	)
	if err := s.Scan(&doc.Collection, &doc.ID, &doc.OwnerID, &raw, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	data, err := decodeData(raw)
	if err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	doc.Data = data
	return &doc, nil
}
