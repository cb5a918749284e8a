// Package cache holds the in-memory mirror of the bound owner's cellar.
//
// The cache has collection semantics only: insert, replace by identifier,
// remove by identifier. Grouping and aggregation are done by callers on the
// snapshots it returns. When a Mirror is attached, every mutation is written
// through to it; mirror failures are logged and never fail the mutation.
package cache

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrijs2005/vinocave/internal/client/models"
	"github.com/dmitrijs2005/vinocave/internal/logging"
)

// Mirror persists the cache contents locally so the next start can render
// before the network answers.
type Mirror interface {
	ReplaceAll(ctx context.Context, wines []models.Wine, quantities []models.Quantity) error
	UpsertWine(ctx context.Context, w models.Wine) error
	DeleteWine(ctx context.Context, id string) error
	UpsertQuantity(ctx context.Context, q models.Quantity) error
	DeleteQuantity(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Load(ctx context.Context) ([]models.Wine, []models.Quantity, error)
}

type Cache struct {
	mu         sync.RWMutex
	wines      []models.Wine
	quantities []models.Quantity
	mirror     Mirror
	logger     logging.Logger
}

// New returns an empty cache. mirror may be nil.
func New(mirror Mirror, logger logging.Logger) *Cache {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Cache{mirror: mirror, logger: logger.With("module", "cache")}
}

// Reset drops every wine and quantity.
func (c *Cache) Reset(ctx context.Context) {
	c.mu.Lock()
	c.wines = nil
	c.quantities = nil
	c.mu.Unlock()

	c.mirrorDo(ctx, "clear", func(m Mirror) error { return m.Clear(ctx) })
}

// Replace swaps the whole content, keeping the given order.
// Duplicate identifiers keep their first occurrence.
func (c *Cache) Replace(ctx context.Context, wines []models.Wine, quantities []models.Quantity) {
	ws := dedupe(wines, func(w models.Wine) string { return w.ID })
	qs := dedupe(quantities, func(q models.Quantity) string { return q.ID })

	c.mu.Lock()
	c.wines = ws
	c.quantities = qs
	c.mu.Unlock()

	c.mirrorDo(ctx, "replace", func(m Mirror) error { return m.ReplaceAll(ctx, ws, qs) })
}

// LoadMirror fills the cache from the mirror without writing back.
// It reports whether anything was loaded.
func (c *Cache) LoadMirror(ctx context.Context) (bool, error) {
	if c.mirror == nil {
		return false, nil
	}
	wines, quantities, err := c.mirror.Load(ctx)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	c.wines = dedupe(wines, func(w models.Wine) string { return w.ID })
	c.quantities = dedupe(quantities, func(q models.Quantity) string { return q.ID })
	c.mu.Unlock()

	return len(wines) > 0 || len(quantities) > 0, nil
}

// Wines returns a snapshot in insertion order.
func (c *Cache) Wines() []models.Wine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.wines)
}

// Quantities returns a snapshot in insertion order.
func (c *Cache) Quantities() []models.Quantity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.quantities)
}

func (c *Cache) Wine(id string) (models.Wine, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := slices.IndexFunc(c.wines, func(w models.Wine) bool { return w.ID == id })
	if i < 0 {
		return models.Wine{}, false
	}
	return c.wines[i], true
}

func (c *Cache) Quantity(id string) (models.Quantity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := slices.IndexFunc(c.quantities, func(q models.Quantity) bool { return q.ID == id })
	if i < 0 {
		return models.Quantity{}, false
	}
	return c.quantities[i], true
}

// QuantitiesForWine returns the quantities whose foreign key is wineID.
func (c *Cache) QuantitiesForWine(wineID string) []models.Quantity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Quantity
	for _, q := range c.quantities {
		if q.WineID == wineID {
			out = append(out, q)
		}
	}
	return out
}

// UpsertWine replaces the wine with the same ID or appends it.
// Wines without an ID are ignored: the cache only holds issued identifiers.
func (c *Cache) UpsertWine(ctx context.Context, w models.Wine) {
	if w.ID == "" {
		return
	}
	c.mu.Lock()
	c.wines = upsert(c.wines, w, func(x models.Wine) bool { return x.ID == w.ID })
	c.mu.Unlock()

	c.mirrorDo(ctx, "upsert wine", func(m Mirror) error { return m.UpsertWine(ctx, w) }, "wine_id", w.ID)
}

// RemoveWine reports whether the wine was present.
func (c *Cache) RemoveWine(ctx context.Context, id string) bool {
	c.mu.Lock()
	n := len(c.wines)
	c.wines = slices.DeleteFunc(c.wines, func(w models.Wine) bool { return w.ID == id })
	removed := len(c.wines) != n
	c.mu.Unlock()

	if removed {
		c.mirrorDo(ctx, "delete wine", func(m Mirror) error { return m.DeleteWine(ctx, id) }, "wine_id", id)
	}
	return removed
}

// UpsertQuantity replaces the quantity with the same ID or appends it.
func (c *Cache) UpsertQuantity(ctx context.Context, q models.Quantity) {
	if q.ID == "" {
		return
	}
	c.mu.Lock()
	c.quantities = upsert(c.quantities, q, func(x models.Quantity) bool { return x.ID == q.ID })
	c.mu.Unlock()

	c.mirrorDo(ctx, "upsert quantity", func(m Mirror) error { return m.UpsertQuantity(ctx, q) }, "quantity_id", q.ID)
}

// RemoveQuantity reports whether the quantity was present.
func (c *Cache) RemoveQuantity(ctx context.Context, id string) bool {
	c.mu.Lock()
	n := len(c.quantities)
	c.quantities = slices.DeleteFunc(c.quantities, func(q models.Quantity) bool { return q.ID == id })
	removed := len(c.quantities) != n
	c.mu.Unlock()

	if removed {
		c.mirrorDo(ctx, "delete quantity", func(m Mirror) error { return m.DeleteQuantity(ctx, id) }, "quantity_id", id)
	}
	return removed
}

func (c *Cache) mirrorDo(ctx context.Context, op string, fn func(Mirror) error, args ...any) {
	if c.mirror == nil {
		return
	}
	if err := fn(c.mirror); err != nil {
		c.logger.Warn(ctx, "mirror write failed", append([]any{"op", op, "error", err}, args...)...)
	}
}

func upsert[T any](items []T, v T, same func(T) bool) []T {
	if i := slices.IndexFunc(items, same); i >= 0 {
		items[i] = v
		return items
	}
	return append(items, v)
}

func dedupe[T any](items []T, key func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := key(it)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}
