package client

import (
	"context"

	"github.com/dmitrijs2005/vinocave/internal/client/models"
)

// Client is the Remote Store Client: a thin CRUD facade over the owner-scoped
// Wines and Quantities collections plus owner management. Calls are
// single-shot and never retried except for a transparent token refresh.
type Client interface {
	Close() error
	Ping(ctx context.Context) error

	FetchWines(ctx context.Context, ownerID string) ([]models.Wine, error)
	FetchQuantities(ctx context.Context, ownerID string) ([]models.Quantity, error)

	// CreateOrUpdateWine inserts a wine without an ID and returns the new
	// identifier, or replaces a wine in place and returns its ID unchanged.
	CreateOrUpdateWine(ctx context.Context, wine models.Wine) (string, error)
	// CreateQuantity inserts q and returns it as stored, carrying the
	// identifier and creation time assigned by the store.
	CreateQuantity(ctx context.Context, q models.Quantity) (models.Quantity, error)
	UpdateQuantity(ctx context.Context, q models.Quantity) error
	DeleteWine(ctx context.Context, wineID string) error
	DeleteQuantity(ctx context.Context, quantityID string) error

	// ResolveOwner maps a join code to an owner ID, or fails with ErrNotFound.
	ResolveOwner(ctx context.Context, code string) (string, error)
	CreateOwner(ctx context.Context, name string) (string, error)

	// PresignBackup returns an object key and a presigned PUT URL for a
	// backup of the bound owner's cellar.
	PresignBackup(ctx context.Context) (key string, url string, err error)
}
