package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/vinocave/internal/client/cache"
	"github.com/dmitrijs2005/vinocave/internal/client/client"
	"github.com/dmitrijs2005/vinocave/internal/client/models"
	"github.com/dmitrijs2005/vinocave/internal/logging"
)

// OwnerEnsurer hands out the bound owner, creating one if needed.
type OwnerEnsurer interface {
	EnsureOwner(ctx context.Context) (string, error)
}

// SaveResult describes what a save actually changed.
type SaveResult struct {
	Wine        models.Wine
	WineWritten bool
	Created     []models.Quantity
	Updated     []models.Quantity
	Deleted     []models.Quantity
	WineDeleted bool
}

// Writes is the number of remote writes the save issued for quantities.
func (r *SaveResult) Writes() int {
	return len(r.Created) + len(r.Updated) + len(r.Deleted)
}

// DecrementResult is the outcome of drinking one bottle.
type DecrementResult struct {
	Quantity        models.Quantity
	QuantityDeleted bool
	WineDeleted     bool
}

// CellarService is the only writer of wines and quantities. Every create
// and update reaches the remote store before the cache.
//
// Contract:
//   - SaveWine: write the wine unless the cache already holds it as is,
//     then diff its vintages against the cache by year. An empty vintage
//     map deletes the wine and its quantities.
//   - DecrementOne: take one bottle out of a quantity, cascading the
//     delete to the quantity and then the wine when they reach zero.
//   - DeleteWine: remove every quantity of a wine, then the wine.
//
// Failed sub-operations are reported in a *PartialFailureError and never
// rolled back.
type CellarService interface {
	SaveWine(ctx context.Context, wine models.Wine, vintages models.VintageMap) (*SaveResult, error)
	DecrementOne(ctx context.Context, quantityID string) (*DecrementResult, error)
	DeleteWine(ctx context.Context, wineID string) (*SaveResult, error)
}

type cellarService struct {
	client client.Client
	cache  *cache.Cache
	owners OwnerEnsurer
	logger logging.Logger
}

func NewCellarService(c client.Client, cc *cache.Cache, owners OwnerEnsurer, logger logging.Logger) CellarService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &cellarService{
		client: c,
		cache:  cc,
		owners: owners,
		logger: logger.With("module", "cellar"),
	}
}

func (s *cellarService) SaveWine(ctx context.Context, wine models.Wine, vintages models.VintageMap) (*SaveResult, error) {
	if err := vintages.Validate(); err != nil {
		return nil, err
	}

	desired := vintages.Active()
	if len(desired) == 0 {
		return s.deleteAll(ctx, wine)
	}

	wine.Name = strings.TrimSpace(wine.Name)
	if wine.Name == "" {
		return nil, ErrEmptyWine
	}

	if wine.OwnerID == "" {
		ownerID, err := s.owners.EnsureOwner(ctx)
		if err != nil {
			return nil, err
		}
		wine.OwnerID = ownerID
	}

	res := &SaveResult{Wine: wine}
	if cached, ok := s.cache.Wine(wine.ID); !ok || cached != wine {
		id, err := s.client.CreateOrUpdateWine(ctx, wine)
		if err != nil {
			s.logger.Warn(ctx, "wine write failed", "wine_id", wine.ID, "error", err)
			return nil, fmt.Errorf("save wine: %w", err)
		}
		wine.ID = id
		s.cache.UpsertWine(ctx, wine)
		res.Wine = wine
		res.WineWritten = true
	}

	failed := &PartialFailureError{}

	existing := make(map[int]models.Quantity)
	for _, q := range s.cache.QuantitiesForWine(wine.ID) {
		if _, dup := existing[q.Year]; dup {
			// A second record for the same year can only come from a
			// concurrent writer; fold it away.
			s.deleteQuantity(ctx, q, res, failed)
			continue
		}
		existing[q.Year] = q
	}

	for _, year := range sortedYears(existing) {
		if _, keep := desired[year]; !keep {
			s.deleteQuantity(ctx, existing[year], res, failed)
		}
	}

	for _, year := range desired.Years() {
		v := desired[year]
		q, ok := existing[year]
		switch {
		case !ok:
			s.createQuantity(ctx, wine, year, v, res, failed)
		case q.Count != v.Count || q.Price != v.Price:
			q.Count, q.Price, q.OwnerID = v.Count, v.Price, wine.OwnerID
			s.updateQuantity(ctx, q, res, failed)
		}
	}

	s.logger.Info(ctx, "wine saved", "wine_id", wine.ID, "created", len(res.Created),
		"updated", len(res.Updated), "deleted", len(res.Deleted), "failed", len(failed.Ops))
	return res, failed.errOrNil()
}

func (s *cellarService) DeleteWine(ctx context.Context, wineID string) (*SaveResult, error) {
	wine, ok := s.cache.Wine(wineID)
	if !ok {
		return nil, fmt.Errorf("%w: wine %s", ErrInconsistent, wineID)
	}
	return s.deleteAll(ctx, wine)
}

// deleteAll removes the wine's quantities and then the wine. The wine is
// kept when a quantity survives so that no quantity points at a missing wine.
func (s *cellarService) deleteAll(ctx context.Context, wine models.Wine) (*SaveResult, error) {
	res := &SaveResult{Wine: wine}
	if !wine.IsPersisted() {
		return res, nil
	}

	failed := &PartialFailureError{}
	for _, q := range s.cache.QuantitiesForWine(wine.ID) {
		s.deleteQuantity(ctx, q, res, failed)
	}
	if len(failed.Ops) > 0 {
		return res, failed
	}

	if err := s.client.DeleteWine(ctx, wine.ID); err != nil {
		s.logger.Warn(ctx, "wine delete failed", "wine_id", wine.ID, "error", err)
		failed.add(FailedOp{Kind: OpDeleteWine, ID: wine.ID, Err: err})
		return res, failed
	}
	s.cache.RemoveWine(ctx, wine.ID)
	res.WineDeleted = true

	s.logger.Info(ctx, "wine deleted", "wine_id", wine.ID, "quantities", len(res.Deleted))
	return res, nil
}

func (s *cellarService) DecrementOne(ctx context.Context, quantityID string) (*DecrementResult, error) {
	q, ok := s.cache.Quantity(quantityID)
	if !ok {
		return nil, fmt.Errorf("%w: quantity %s", ErrInconsistent, quantityID)
	}

	q.Count--
	res := &DecrementResult{Quantity: q}

	if q.Count > 0 {
		if err := s.client.UpdateQuantity(ctx, q); err != nil {
			return nil, fmt.Errorf("decrement: %w", err)
		}
		s.cache.UpsertQuantity(ctx, q)
		return res, nil
	}

	if err := s.client.DeleteQuantity(ctx, q.ID); err != nil {
		return nil, fmt.Errorf("decrement: %w", err)
	}
	s.cache.RemoveQuantity(ctx, q.ID)
	res.QuantityDeleted = true

	if TotalForWine(s.cache.Quantities(), q.WineID) > 0 {
		return res, nil
	}

	if err := s.client.DeleteWine(ctx, q.WineID); err != nil {
		s.logger.Warn(ctx, "empty wine not deleted", "wine_id", q.WineID, "error", err)
		return res, &PartialFailureError{Ops: []FailedOp{{Kind: OpDeleteWine, ID: q.WineID, Err: err}}}
	}
	s.cache.RemoveWine(ctx, q.WineID)
	res.WineDeleted = true
	return res, nil
}

func (s *cellarService) createQuantity(ctx context.Context, wine models.Wine, year int, v models.Vintage, res *SaveResult, failed *PartialFailureError) {
	q, err := s.client.CreateQuantity(ctx, models.Quantity{
		OwnerID: wine.OwnerID,
		WineID:  wine.ID,
		Year:    year,
		Count:   v.Count,
		Price:   v.Price,
	})
	if err != nil {
		s.logger.Warn(ctx, "quantity create failed", "wine_id", wine.ID, "year", year, "error", err)
		failed.add(FailedOp{Kind: OpCreateQuantity, Year: year, Err: err})
		return
	}
	s.cache.UpsertQuantity(ctx, q)
	res.Created = append(res.Created, q)
}

func (s *cellarService) updateQuantity(ctx context.Context, q models.Quantity, res *SaveResult, failed *PartialFailureError) {
	if err := s.client.UpdateQuantity(ctx, q); err != nil {
		s.logger.Warn(ctx, "quantity update failed", "quantity_id", q.ID, "error", err)
		failed.add(FailedOp{Kind: OpUpdateQuantity, ID: q.ID, Year: q.Year, Err: err})
		return
	}
	s.cache.UpsertQuantity(ctx, q)
	res.Updated = append(res.Updated, q)
}

func (s *cellarService) deleteQuantity(ctx context.Context, q models.Quantity, res *SaveResult, failed *PartialFailureError) {
	if err := s.client.DeleteQuantity(ctx, q.ID); err != nil {
		s.logger.Warn(ctx, "quantity delete failed", "quantity_id", q.ID, "error", err)
		failed.add(FailedOp{Kind: OpDeleteQuantity, ID: q.ID, Year: q.Year, Err: err})
		return
	}
	s.cache.RemoveQuantity(ctx, q.ID)
	res.Deleted = append(res.Deleted, q)
}

func sortedYears(m map[int]models.Quantity) []int {
	years := make([]int, 0, len(m))
	for y := range m {
		years = append(years, y)
	}
	slices.Sort(years)
	return years
}
