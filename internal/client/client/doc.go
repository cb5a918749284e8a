// Package client contains the device-side building blocks that talk to the
// outside world.
//
// # Overview
//
//  1. A transport-agnostic contract (Client) for the remote document store:
//     fetching an owner's wines and quantities, writing them back, and
//     resolving or creating owners.
//  2. A gRPC implementation (GRPCClient) that keeps one access token per
//     owner, obtains it lazily through ResolveOwner, refreshes it once when
//     the server reports it expired, and maps status codes to sentinel errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) opening the
//     SQLite mirror and applying embedded goose migrations.
//
// # Error Handling
//
// Callers match failures with errors.Is: ErrNotFound, ErrWriteFailed,
// ErrUnavailable, ErrUnauthorized. Failed writes always wrap ErrWriteFailed
// and additionally the transport cause when one is known.
//
// GRPCClient is safe for concurrent use. Every call honours ctx and is
// additionally bounded by the configured request timeout.
package client
