// Package metadata stores small device-level key/value settings in the
// local SQLite database, such as the bound owner identifier.
package metadata

import (
	"context"
)

// KeyOwnerID holds the identifier of the owner this device is bound to.
const KeyOwnerID = "owner_id"

type Repository interface {
	// Get returns nil, nil when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
