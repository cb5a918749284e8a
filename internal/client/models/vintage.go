package models

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
)

// Vintage is the desired holding for one year: how many bottles and at
// what unit price.
type Vintage struct {
	Count int     `json:"quantity" validate:"gte=0"`
	Price float64 `json:"price" validate:"gte=0"`
}

// VintageMap is the desired state of a wine's holdings keyed by year.
// Entries with Count <= 0 mean "this year should not exist".
type VintageMap map[int]Vintage

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every entry and the year range. NoVintage is always valid.
func (m VintageMap) Validate() error {
	for year, v := range m {
		if year != NoVintage && (year < 1800 || year > 2999) {
			return fmt.Errorf("%w: year %d", ErrInvalidVintage, year)
		}
		if err := validate.Struct(v); err != nil {
			return fmt.Errorf("%w: year %d: %v", ErrInvalidVintage, year, err)
		}
	}
	return nil
}

// Years returns the years with a positive count in ascending order.
func (m VintageMap) Years() []int {
	years := make([]int, 0, len(m))
	for y, v := range m {
		if v.Count > 0 {
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years
}

// Active drops entries with a non-positive count.
func (m VintageMap) Active() VintageMap {
	out := make(VintageMap, len(m))
	for y, v := range m {
		if v.Count > 0 {
			out[y] = v
		}
	}
	return out
}

// VintageMapOf builds the map describing the current holdings of one wine.
func VintageMapOf(quantities []Quantity) VintageMap {
	out := make(VintageMap, len(quantities))
	for _, q := range quantities {
		out[q.Year] = Vintage{Count: q.Count, Price: q.Price}
	}
	return out
}
