// Package cli provides the interactive vinocave client.
//
// It wires configuration, the local sqlite mirror, the document store
// client and the cellar services, then runs a REPL over them. A background
// watcher pings the server and reports online/offline transitions.
//
// Key features:
//   - List, search and show wines with their vintages
//   - Add, edit and delete wines; drink a bottle or draw one at random
//   - Join a shared cellar by code or link, share, leave, refresh
//   - Statistics (value, totals, aging phases), import and backup
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
package cli
