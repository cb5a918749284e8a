// Package services contains the client application services: the cellar
// write path that keeps the cache and the remote store in lockstep, the
// ownership resolver that binds the device to a cellar, and the read-side
// helpers built on cache snapshots (aggregates, random draw, import, backup).
package services
