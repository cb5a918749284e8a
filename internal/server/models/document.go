package models

import "time"

// Document is an opaque record of a collection. The server only looks at
// OwnerID, which it keeps alongside Data for scoping.
type Document struct {
	Collection string
	ID         string
	OwnerID    string
	Data       map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
