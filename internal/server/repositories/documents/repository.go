package documents

import (
	"context"

	"github.com/dmitrijs2005/vinocave/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, doc *models.Document) error
	Upsert(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, collection, id string) (*models.Document, error)
	ListByOwner(ctx context.Context, collection, ownerID string) ([]*models.Document, error)
	Delete(ctx context.Context, collection, id, ownerID string) (int64, error)
}
