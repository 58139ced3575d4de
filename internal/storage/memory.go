package storage

import (
	"context"
	"sync"

	"echobo/internal/core"
	"echobo/internal/log"
)

// MemoryStore keeps the ledger blob in process memory. It goes through the
// same codec as the SQLite store so round-trip behaviour is identical.
type MemoryStore struct {
	mu     sync.Mutex
	blob   []byte
	logger *log.Logger
	// FailSave, when set, is returned by Save without touching the blob.
	FailSave error
}

var _ Persister = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreWithBlob starts the store with a raw, possibly corrupt, blob.
func NewMemoryStoreWithBlob(blob []byte) *MemoryStore {
	return &MemoryStore{blob: append([]byte(nil), blob...)}
}

// WithLogger sets the logger that reports unreadable blobs.
func (m *MemoryStore) WithLogger(l *log.Logger) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = l.WithComponent(log.ComponentStorage)
	return m
}

func (m *MemoryStore) Load(ctx context.Context) (*core.Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blob == nil {
		return nil, nil
	}
	l, err := decodeOrNil(m.blob)
	if err != nil {
		if m.logger != nil {
			m.logger.WarnContext(ctx, "Stored app state is unreadable, ignoring it",
				log.FieldOperation, log.OpLoad,
				log.FieldError, err)
		}
		return nil, nil
	}
	return l, nil
}

func (m *MemoryStore) Save(_ context.Context, l core.Ledger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave != nil {
		return m.FailSave
	}
	blob, err := EncodeLedger(l)
	if err != nil {
		return err
	}
	m.blob = blob
	return nil
}

// Blob returns a copy of the stored bytes.
func (m *MemoryStore) Blob() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.blob...)
}

func (m *MemoryStore) Ping(context.Context) error { return nil }
