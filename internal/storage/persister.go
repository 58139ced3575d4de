// Package storage persists the ledger as a single serialized blob.
package storage

import (
	"context"

	"echobo/internal/core"
)

// StateKey is the one key under which the ledger blob is stored.
const StateKey = "appState"

// Persister loads and saves the durable part of the application state.
type Persister interface {
	// Load returns the stored ledger, or nil when nothing is stored or the
	// stored blob cannot be decoded. An error means the medium itself failed.
	Load(ctx context.Context) (*core.Ledger, error)

	// Save replaces the stored blob with the given ledger.
	Save(ctx context.Context, l core.Ledger) error
}

// Pinger is implemented by persisters that can report medium health.
type Pinger interface {
	Ping(ctx context.Context) error
}
