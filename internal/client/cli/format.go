package cli

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/vinocave/internal/client/models"
)

var (
	errNoMatch   = errors.New("no match")
	errAmbiguous = errors.New("ambiguous identifier, type more characters")
	errUsage     = errors.New("usage")
)

const shortIDLen = 8

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func parseYear(s string) (int, error) {
	if strings.EqualFold(s, "nv") {
		return models.NoVintage, nil
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("year: %w", err)
	}
	return y, nil
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64) + " €"
}

// findByPrefix returns the single item whose id equals or starts with prefix.
func findByPrefix[T any](items []T, id func(T) string, prefix string) (T, error) {
	var zero T
	if prefix == "" {
		return zero, errNoMatch
	}
	var found []T
	for _, it := range items {
		switch {
		case id(it) == prefix:
			return it, nil
		case strings.HasPrefix(id(it), prefix):
			found = append(found, it)
		}
	}
	switch len(found) {
	case 0:
		return zero, fmt.Errorf("%w: %s", errNoMatch, prefix)
	case 1:
		return found[0], nil
	default:
		return zero, fmt.Errorf("%w: %s", errAmbiguous, prefix)
	}
}

func (a *App) findWine(prefix string) (models.Wine, error) {
	return findByPrefix(a.cache.Wines(), func(w models.Wine) string { return w.ID }, prefix)
}

func (a *App) findQuantity(prefix string) (models.Quantity, error) {
	return findByPrefix(a.cache.Quantities(), func(q models.Quantity) string { return q.ID }, prefix)
}

func labelsOf[T fmt.Stringer](xs []T) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = x.String()
	}
	return out
}

type countRow struct {
	Label string
	Count int
}

// byCountDesc sorts a grouping by count, then label.
func byCountDesc[K comparable](m map[K]int, label func(K) string) []countRow {
	rows := make([]countRow, 0, len(m))
	for k, n := range m {
		rows = append(rows, countRow{Label: label(k), Count: n})
	}
	slices.SortFunc(rows, func(a, b countRow) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return rows
}
