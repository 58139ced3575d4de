// Package backend builds the storage and event-publishing stack from
// configuration.
package backend

import (
	"context"

	"echobo/internal/storage"
	"echobo/internal/store"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// BackendResult contains the built backend and its cleanup function.
// Publisher is nil when events are disabled or the broker was unreachable.
type BackendResult struct {
	Persister storage.Persister
	Publisher store.Publisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Optional expense-recorded events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	AMQPPrefetch int
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
