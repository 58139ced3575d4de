// Package store owns the canonical application state and its mutations.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"echobo/internal/core"
	"echobo/internal/log"
	"echobo/internal/storage"
)

// ErrNotInitialized is returned by mutations attempted before Initialize.
var ErrNotInitialized = errors.New("store not initialized")

// Publisher is told about every expense that was durably recorded.
type Publisher interface {
	PublishExpenseRecorded(ctx context.Context, e core.Expense, index int) error
}

// Store holds the one AppState of a session. All reads return copies and all
// mutations happen under the lock, so no caller ever sees a half-applied
// change.
type Store struct {
	mu          sync.Mutex
	state       core.AppState
	initialized bool

	persister storage.Persister
	publisher Publisher
	logger    *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithPublisher attaches a publisher notified after each successful save.
func WithPublisher(p Publisher) Option {
	return func(s *Store) { s.publisher = p }
}

// WithLogger sets the store logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func New(p storage.Persister, opts ...Option) *Store {
	s := &Store{persister: p}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	s.logger = s.logger.WithComponent(log.ComponentStore)
	return s
}

// Initialize restores the ledger from storage, or seeds it when nothing
// usable is stored. Only the first call loads; later calls return the
// current state.
func (s *Store) Initialize(ctx context.Context) (core.AppState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return s.state.Clone(), nil
	}

	stored, err := s.persister.Load(ctx)
	if err != nil {
		return core.AppState{}, fmt.Errorf("load app state: %w", err)
	}

	if stored == nil {
		s.state = core.SeedState()
		s.logger.InfoContext(ctx, "No stored app state, starting from seed data",
			log.FieldOperation, log.OpLoad,
			log.FieldRecords, len(s.state.Ledger.Expenses))
	} else {
		s.state = core.AppState{
			Ledger:  stored.Clone(),
			Session: core.Session{CurrentView: core.ViewDashboard},
		}
		s.logger.InfoContext(ctx, "Restored app state",
			log.FieldOperation, log.OpLoad,
			log.FieldRecords, len(s.state.Ledger.Expenses))
	}
	s.initialized = true
	return s.state.Clone(), nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() core.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// SetView changes the current screen. The choice is not persisted.
func (s *Store) SetView(v core.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Session.CurrentView = core.ParseView(string(v))
}

// SelectCategory records the chooser selection. Selecting replaces any
// previous selection.
func (s *Store) SelectCategory(c core.Category) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", core.ErrUnknownCategory, c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Session.SelectedCategory = c
	return nil
}

// AddExpense validates the draft against the current selection, appends the
// record, clears the selection and saves. Validation failures return a
// *core.ValidationError and change nothing. A failed save is rolled back so
// memory never runs ahead of storage.
func (s *Store) AddExpense(ctx context.Context, d core.ExpenseDraft) error {
	s.mu.Lock()

	if !s.initialized {
		s.mu.Unlock()
		return ErrNotInitialized
	}

	selected := s.state.Session.SelectedCategory
	if err := d.Validate(selected); err != nil {
		s.mu.Unlock()
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			s.logger.InfoContext(ctx, "Expense rejected",
				log.FieldOperation, log.OpAppend,
				log.FieldFields, verr.Fields)
		}
		return err
	}

	e := d.Expense(selected)
	prev := s.state
	next := s.state.Clone()
	next.Ledger.Expenses = append(next.Ledger.Expenses, e)
	next.Session.SelectedCategory = ""

	if err := s.persister.Save(ctx, next.Ledger); err != nil {
		s.state = prev
		s.mu.Unlock()
		s.logger.ErrorContext(ctx, "Failed to save app state, expense discarded",
			log.NewFields().
				WithOperation(log.OpSave).
				WithExpense(e.Date, e.Amount, string(e.Category)).
				WithError(err).
				ToSlice()...)
		return fmt.Errorf("save app state: %w", err)
	}
	s.state = next
	index := len(next.Ledger.Expenses) - 1
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Expense recorded",
		log.NewFields().
			WithOperation(log.OpAppend).
			WithExpense(e.Date, e.Amount, string(e.Category)).
			ToSlice()...)

	if s.publisher != nil {
		if err := s.publisher.PublishExpenseRecorded(ctx, e, index); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish expense event",
				log.FieldOperation, log.OpPublish,
				log.FieldError, err)
		}
	}
	return nil
}

// Ready reports whether the backing storage answers.
func (s *Store) Ready(ctx context.Context) error {
	if p, ok := s.persister.(storage.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
