// Package common contains shared constants and sentinel errors used across
// vinocave components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// owner-scoped access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// Collections of the remote document store.
const (
	CollectionOwners     = "Owners"
	CollectionWines      = "Wines"
	CollectionQuantities = "Quantities"
)

// Document fields shared by client and server.
const (
	FieldOwnerID = "ownerId"
	FieldWineID  = "wineId"
)

// ShareLinkScheme is the URL scheme of deep links carrying a join code,
// e.g. vinocave://code/<ownerId>.
const (
	ShareLinkScheme = "vinocave"
	ShareLinkHost   = "code"
)
