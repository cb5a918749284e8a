package services

import (
	"cmp"
	"slices"

	"github.com/dmitrijs2005/vinocave/internal/client/models"
)

// Aggregates are recomputed from the cache snapshots on every call and
// never stored.

// WineCount is a wine with the number of bottles held in some grouping.
type WineCount struct {
	Wine  models.Wine
	Count int
}

// PhaseGroup lists the holdings that sit in one aging phase.
type PhaseGroup struct {
	Phase models.AgingPhase
	Wines []WineCount
	Total int
}

// TotalForWine sums the counts of every quantity referencing wineID.
func TotalForWine(quantities []models.Quantity, wineID string) int {
	total := 0
	for _, q := range quantities {
		if q.WineID == wineID {
			total += q.Count
		}
	}
	return total
}

// Totals maps every wine ID to its bottle count.
func Totals(quantities []models.Quantity) map[string]int {
	out := make(map[string]int)
	for _, q := range quantities {
		out[q.WineID] += q.Count
	}
	return out
}

// totalsBy sums per-wine totals over wines for which key reports true.
func totalsBy[K comparable](wines []models.Wine, quantities []models.Quantity, key func(models.Wine) (K, bool)) map[K]int {
	perWine := Totals(quantities)
	out := make(map[K]int)
	for _, w := range wines {
		k, ok := key(w)
		if !ok {
			continue
		}
		if n := perWine[w.ID]; n > 0 {
			out[k] += n
		}
	}
	return out
}

// TotalsByRegion counts French wines only.
func TotalsByRegion(wines []models.Wine, quantities []models.Quantity) map[models.Region]int {
	return totalsBy(wines, quantities, func(w models.Wine) (models.Region, bool) {
		return w.Region, w.Country == models.CountryFrance
	})
}

func TotalsByCountry(wines []models.Wine, quantities []models.Quantity) map[models.Country]int {
	return totalsBy(wines, quantities, func(w models.Wine) (models.Country, bool) { return w.Country, true })
}

func TotalsByType(wines []models.Wine, quantities []models.Quantity) map[models.WineType]int {
	return totalsBy(wines, quantities, func(w models.Wine) (models.WineType, bool) { return w.Type, true })
}

// TotalsByAppellation counts Bordeaux wines only.
func TotalsByAppellation(wines []models.Wine, quantities []models.Quantity) map[models.Appellation]int {
	return totalsBy(wines, quantities, func(w models.Wine) (models.Appellation, bool) {
		return w.Appellation, w.Country == models.CountryFrance && w.Region == models.RegionBordeaux
	})
}

// TotalsByYear counts bottles per vintage for quantities of known wines.
func TotalsByYear(wines []models.Wine, quantities []models.Quantity) map[int]int {
	known := wineIndex(wines)
	out := make(map[int]int)
	for _, q := range quantities {
		if _, ok := known[q.WineID]; ok && q.Count > 0 {
			out[q.Year] += q.Count
		}
	}
	return out
}

// CellarValue returns the bottle count and the sum of count times price.
func CellarValue(quantities []models.Quantity) (int, float64) {
	bottles, value := 0, 0.0
	for _, q := range quantities {
		bottles += q.Count
		value += float64(q.Count) * q.Price
	}
	return bottles, value
}

// Years returns the distinct vintages held, newest first.
func Years(wines []models.Wine, quantities []models.Quantity) []int {
	byYear := TotalsByYear(wines, quantities)
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	slices.SortFunc(years, func(a, b int) int { return cmp.Compare(b, a) })
	return years
}

// WinesForYear lists the wines holding the given vintage in cache order.
func WinesForYear(wines []models.Wine, quantities []models.Quantity, year int) []WineCount {
	counts := make(map[string]int)
	for _, q := range quantities {
		if q.Year == year {
			counts[q.WineID] += q.Count
		}
	}
	var out []WineCount
	for _, w := range wines {
		if n := counts[w.ID]; n > 0 {
			out = append(out, WineCount{Wine: w, Count: n})
		}
	}
	return out
}

// ByPhase groups holdings by aging phase relative to currentYear. Every
// phase is returned, in phase order, even when empty.
func ByPhase(wines []models.Wine, quantities []models.Quantity, currentYear int) []PhaseGroup {
	known := wineIndex(wines)
	groups := make([]PhaseGroup, len(models.AgingPhases()))
	for i, p := range models.AgingPhases() {
		groups[i].Phase = p
	}

	type key struct {
		phase  models.AgingPhase
		wineID string
	}
	counts := make(map[key]int)
	for _, q := range quantities {
		w, ok := known[q.WineID]
		if !ok || q.Count <= 0 {
			continue
		}
		counts[key{models.PhaseFor(w.Type, q.Year, currentYear), w.ID}] += q.Count
	}

	for i := range groups {
		for _, w := range wines {
			if n := counts[key{groups[i].Phase, w.ID}]; n > 0 {
				groups[i].Wines = append(groups[i].Wines, WineCount{Wine: w, Count: n})
				groups[i].Total += n
			}
		}
	}
	return groups
}

// Search keeps the wines matching query in cache order.
func Search(wines []models.Wine, query string) []models.Wine {
	var out []models.Wine
	for _, w := range wines {
		if w.Matches(query) {
			out = append(out, w)
		}
	}
	return out
}

func wineIndex(wines []models.Wine) map[string]models.Wine {
	out := make(map[string]models.Wine, len(wines))
	for _, w := range wines {
		out[w.ID] = w
	}
	return out
}
