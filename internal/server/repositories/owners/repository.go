package owners

import (
	"context"

	"github.com/dmitrijs2005/vinocave/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, owner *models.Owner) (*models.Owner, error)
	Get(ctx context.Context, id string) (*models.Owner, error)
}
