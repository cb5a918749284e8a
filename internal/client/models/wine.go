// Package models defines the client-side domain types of the cellar:
// owners, wines, per-vintage quantities and the enums describing a bottle.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// NoVintage is the year stored for bottles without a vintage.
const NoVintage = 9999

// Owner is one cellar. Its ID doubles as the join code.
type Owner struct {
	ID   string `json:"-"`
	Name string `json:"name"`
}

// Wine is a distinct bottle definition, independent of vintages held.
// ID is empty until the remote store has accepted the first write.
type Wine struct {
	ID            string        `json:"-"`
	OwnerID       string        `json:"ownerId"`
	Type          WineType      `json:"type"`
	Region        Region        `json:"region"`
	Appellation   Appellation   `json:"appelation"`
	Name          string        `json:"name"`
	Producer      string        `json:"owner"`
	Info          string        `json:"info"`
	Country       Country       `json:"country"`
	Size          Size          `json:"size"`

	// USAppellation only applies to American wines. It is an optional
	// payload field; a missing key decodes to the zero value.
	USAppellation USAppellation `json:"usAppelation,omitempty"`
}

// IsPersisted reports whether the remote store has assigned an identifier.
func (w Wine) IsPersisted() bool { return w.ID != "" }

// Origin is the human label for where the wine comes from: the region for
// French wines and the country otherwise.
func (w Wine) Origin() string {
	if w.Country == CountryFrance {
		return w.Region.String()
	}
	return w.Country.String()
}

// Quantity is the holding of one wine for one vintage year.
type Quantity struct {
	ID        string    `json:"-"`
	OwnerID   string    `json:"ownerId"`
	WineID    string    `json:"wineId"`
	Year      int       `json:"year"`
	Count     int       `json:"quantity"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"-"`
}

// YearLabel renders the vintage year, or "NV" for NoVintage.
func YearLabel(year int) string {
	if year == NoVintage {
		return "NV"
	}
	return fmt.Sprintf("%d", year)
}

// Document returns the remote payload of the wine. The identifier is not part
// of the payload; it is the document key.
func (w Wine) Document() (map[string]any, error) { return toDocument(w) }

// WineFromDocument decodes a remote payload. Missing optional fields keep
// their zero values.
func WineFromDocument(id string, data map[string]any) (Wine, error) {
	var w Wine
	if err := fromDocument(data, &w); err != nil {
		return Wine{}, fmt.Errorf("wine %s: %w", id, err)
	}
	w.ID = id
	return w, nil
}

func (q Quantity) Document() (map[string]any, error) { return toDocument(q) }

func QuantityFromDocument(id string, data map[string]any, createdAt time.Time) (Quantity, error) {
	var q Quantity
	if err := fromDocument(data, &q); err != nil {
		return Quantity{}, fmt.Errorf("quantity %s: %w", id, err)
	}
	q.ID = id
	q.CreatedAt = createdAt
	return q, nil
}

// toDocument goes through JSON so the result only holds types accepted by
// structpb (string, float64, bool, nested maps).
func toDocument(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func fromDocument(data map[string]any, v any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
