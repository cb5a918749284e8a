// Package models defines server-side records persisted in PostgreSQL.
package models

import "time"

// Owner is one cellar. Its ID doubles as the join code handed out to
// other devices.
type Owner struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
