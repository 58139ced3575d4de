package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"echobo/internal/core"
	"echobo/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the ledger blob in a single-row key/value table.
type SQLiteStore struct {
	db     *sql.DB
	logger *log.Logger
}

var _ Persister = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at dbPath and runs
// migrations.
func NewSQLiteStore(dbPath string, logger *log.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer; the app is single-user and every save is one statement.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.WithComponent(log.ComponentStorage),
	}, nil
}

// Load implements Persister.
func (s *SQLiteStore) Load(ctx context.Context) (*core.Ledger, error) {
	var blob string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM app_state WHERE key = ?`, StateKey).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read app state: %w", err)
	}

	l, err := decodeOrNil([]byte(blob))
	if err != nil {
		s.logger.WarnContext(ctx, "Stored app state is unreadable, ignoring it",
			log.FieldOperation, log.OpLoad,
			log.FieldError, err)
		return nil, nil
	}
	return l, nil
}

// Save implements Persister. The upsert is a single statement, so a failed
// save leaves the previous blob intact.
func (s *SQLiteStore) Save(ctx context.Context, l core.Ledger) error {
	blob, err := EncodeLedger(l)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO app_state (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		StateKey, string(blob))
	if err != nil {
		return fmt.Errorf("write app state: %w", err)
	}

	s.logger.DebugContext(ctx, "App state saved",
		log.FieldOperation, log.OpSave,
		log.FieldRecords, len(l.Expenses))
	return nil
}

// Ping implements Pinger.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// putRaw stores an arbitrary blob. Tests use it to plant corrupt state.
func (s *SQLiteStore) putRaw(ctx context.Context, blob string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, StateKey, blob)
	return err
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
