package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vinocave/internal/common"
	"github.com/dmitrijs2005/vinocave/internal/dbx"
	"github.com/dmitrijs2005/vinocave/internal/server/models"
	"github.com/dmitrijs2005/vinocave/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

var documentCollections = map[string]bool{
	common.CollectionWines:      true,
	common.CollectionQuantities: true,
}

// DocumentService gives an owner access to its own documents. Every call
// takes the owner id established by the access token.
type DocumentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	newID       func() string
}

func NewDocumentService(db *sql.DB, m repomanager.RepositoryManager) *DocumentService {
	return &DocumentService{db: db, repomanager: m, newID: uuid.NewString}
}

func checkCollection(collection string) error {
	if !documentCollections[collection] {
		return fmt.Errorf("%w: unknown collection %q", common.ErrorValidation, collection)
	}
	return nil
}

// checkDataOwner requires data to carry ownerId equal to the caller.
func checkDataOwner(ownerID string, data map[string]any) error {
	v, _ := data[common.FieldOwnerID].(string)
	if v == "" {
		return fmt.Errorf("%w: %s is required", common.ErrorValidation, common.FieldOwnerID)
	}
	if v != ownerID {
		return fmt.Errorf("%w: document belongs to another owner", common.ErrorForbidden)
	}
	return nil
}

// Query lists documents of collection where field equals value. The only
// supported filter is ownerId, and it must name the caller.
func (s *DocumentService) Query(ctx context.Context, ownerID, collection, field, value string) ([]*models.Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	if field != common.FieldOwnerID {
		return nil, fmt.Errorf("%w: unsupported filter field %q", common.ErrorValidation, field)
	}
	if value != ownerID {
		return nil, fmt.Errorf("%w: query outside owner scope", common.ErrorForbidden)
	}

	docs, err := s.repomanager.Documents(s.db).ListByOwner(ctx, collection, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error querying %s: %w", collection, err)
	}
	return docs, nil
}

// Add stores data under a freshly minted id.
func (s *DocumentService) Add(ctx context.Context, ownerID, collection string, data map[string]any) (*models.Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	if err := checkDataOwner(ownerID, data); err != nil {
		return nil, err
	}

	doc := &models.Document{Collection: collection, ID: s.newID(), OwnerID: ownerID, Data: data}
	if err := s.repomanager.Documents(s.db).Insert(ctx, doc); err != nil {
		return nil, fmt.Errorf("error adding to %s: %w", collection, err)
	}
	return doc, nil
}

// Set replaces the document with id, creating it when absent. Documents of
// other owners are never overwritten.
func (s *DocumentService) Set(ctx context.Context, ownerID, collection, id string, data map[string]any) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("%w: id is required", common.ErrorValidation)
	}
	if err := checkDataOwner(ownerID, data); err != nil {
		return err
	}

	doc := &models.Document{Collection: collection, ID: id, OwnerID: ownerID, Data: data}
	if err := s.repomanager.Documents(s.db).Upsert(ctx, doc); err != nil {
		return fmt.Errorf("error setting %s/%s: %w", collection, id, err)
	}
	return nil
}

// Delete removes the caller's document. Deleting an id that does not exist
// succeeds; deleting another owner's document is forbidden.
func (s *DocumentService) Delete(ctx context.Context, ownerID, collection, id string) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("%w: id is required", common.ErrorValidation)
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Documents(tx)

		n, err := repo.Delete(ctx, collection, id, ownerID)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		doc, err := repo.Get(ctx, collection, id)
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if doc.OwnerID != ownerID {
			return common.ErrorForbidden
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error deleting %s/%s: %w", collection, id, err)
	}
	return nil
}
