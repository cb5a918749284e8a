package services

import (
	"math/rand/v2"
	"slices"

	"github.com/dmitrijs2005/vinocave/internal/client/models"
)

// DrawFilter narrows a random draw. Empty slices do not filter.
// Regions only select French wines.
type DrawFilter struct {
	Regions []models.Region
	Types   []models.WineType
	Years   []int
}

// Draw is a bottle suggestion: a wine and one of its quantities.
type Draw struct {
	Wine     models.Wine
	Quantity models.Quantity
}

// Drawer picks random bottles from cache snapshots.
type Drawer struct {
	rng *rand.Rand
}

// NewDrawer uses rng, or a randomly seeded generator when rng is nil.
func NewDrawer(rng *rand.Rand) *Drawer {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Drawer{rng: rng}
}

// Draw picks a wine uniformly among those passing the filter, then one of
// its matching quantities.
func (d *Drawer) Draw(wines []models.Wine, quantities []models.Quantity, f DrawFilter) (Draw, error) {
	byWine := make(map[string][]models.Quantity)
	for _, q := range quantities {
		if q.Count <= 0 {
			continue
		}
		if len(f.Years) > 0 && !slices.Contains(f.Years, q.Year) {
			continue
		}
		byWine[q.WineID] = append(byWine[q.WineID], q)
	}

	var candidates []models.Wine
	for _, w := range wines {
		if len(f.Regions) > 0 && (w.Country != models.CountryFrance || !slices.Contains(f.Regions, w.Region)) {
			continue
		}
		if len(f.Types) > 0 && !slices.Contains(f.Types, w.Type) {
			continue
		}
		if len(byWine[w.ID]) == 0 {
			continue
		}
		candidates = append(candidates, w)
	}
	if len(candidates) == 0 {
		return Draw{}, ErrNothingDrawn
	}

	w := candidates[d.rng.IntN(len(candidates))]
	qs := byWine[w.ID]
	return Draw{Wine: w, Quantity: qs[d.rng.IntN(len(qs))]}, nil
}
