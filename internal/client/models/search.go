package models

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold normalises s for comparisons: accents are stripped, case is folded
// and surrounding whitespace is trimmed, so "Côtes" and " cotes" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// Matches reports whether query occurs in any of the wine's searchable
// labels: type, region, Bordeaux appellation, name, producer or notes.
// An empty query matches everything.
func (w Wine) Matches(query string) bool {
	q := Fold(query)
	if q == "" {
		return true
	}

	fields := []string{w.Type.String(), w.Name, w.Producer, w.Info}
	if w.Country == CountryFrance {
		fields = append(fields, w.Region.String())
		if w.Region == RegionBordeaux {
			fields = append(fields, w.Appellation.String())
		}
	}
	if w.Country == CountryUSA {
		fields = append(fields, w.USAppellation.String())
	}

	for _, f := range fields {
		if strings.Contains(Fold(f), q) {
			return true
		}
	}
	return false
}
