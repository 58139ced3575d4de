package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"echobo/internal/core"
	"echobo/internal/storage"
)

type recordingPublisher struct {
	mu      sync.Mutex
	events  []core.Expense
	indexes []int
	err     error
}

func (p *recordingPublisher) PublishExpenseRecorded(_ context.Context, e core.Expense, index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	p.indexes = append(p.indexes, index)
	return p.err
}

type failingLoader struct{ storage.MemoryStore }

func (f *failingLoader) Load(context.Context) (*core.Ledger, error) {
	return nil, errors.New("disk unreadable")
}

func newInitialized(t *testing.T, opts ...Option) (*Store, *storage.MemoryStore) {
	t.Helper()
	mem := storage.NewMemoryStore()
	s := New(mem, opts...)
	_, err := s.Initialize(context.Background())
	require.NoError(t, err)
	return s, mem
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()

	t.Run("no stored state yields seed", func(t *testing.T) {
		s := New(storage.NewMemoryStore())
		state, err := s.Initialize(ctx)
		require.NoError(t, err)

		require.Len(t, state.Ledger.Expenses, 3)
		assert.Equal(t, "2025-08-10", state.Ledger.Expenses[0].Date)
		assert.Equal(t, "2025-08-12", state.Ledger.Expenses[1].Date)
		assert.Equal(t, "2025-08-14", state.Ledger.Expenses[2].Date)
		assert.Equal(t, int64(350000), state.Ledger.Sales.Month)
		assert.Equal(t, core.ViewDashboard, state.Session.CurrentView)
		assert.Empty(t, state.Session.SelectedCategory)
	})

	t.Run("corrupt blob yields seed", func(t *testing.T) {
		s := New(storage.NewMemoryStoreWithBlob([]byte("]]")))
		state, err := s.Initialize(ctx)
		require.NoError(t, err)
		assert.Equal(t, core.SeedLedger(), state.Ledger)
	})

	t.Run("null blob yields seed", func(t *testing.T) {
		s := New(storage.NewMemoryStoreWithBlob([]byte("null")))
		state, err := s.Initialize(ctx)
		require.NoError(t, err)
		assert.Equal(t, core.SeedLedger(), state.Ledger)
	})

	t.Run("stored state is restored", func(t *testing.T) {
		mem := storage.NewMemoryStore()
		stored := core.Ledger{
			Sales:    core.Sales{Month: 100},
			Expenses: []core.Expense{{Date: "2025-01-02", Amount: 7, Category: core.CategoryLabor}},
		}
		require.NoError(t, mem.Save(ctx, stored))

		state, err := New(mem).Initialize(ctx)
		require.NoError(t, err)
		assert.Equal(t, stored, state.Ledger)
		assert.Equal(t, core.ViewDashboard, state.Session.CurrentView)
	})

	t.Run("storage failure is returned", func(t *testing.T) {
		_, err := New(&failingLoader{}).Initialize(ctx)
		require.Error(t, err)
	})

	t.Run("second call does not reload", func(t *testing.T) {
		s, mem := newInitialized(t)
		s.SetView(core.ViewReport)
		require.NoError(t, mem.Save(ctx, core.Ledger{}))

		state, err := s.Initialize(ctx)
		require.NoError(t, err)
		assert.Len(t, state.Ledger.Expenses, 3)
		assert.Equal(t, core.ViewReport, state.Session.CurrentView)
	})
}

func TestSetViewAndSelectCategory(t *testing.T) {
	s, mem := newInitialized(t)

	s.SetView(core.ViewAddExpense)
	assert.Equal(t, core.ViewAddExpense, s.Snapshot().Session.CurrentView)
	s.SetView("nonsense")
	assert.Equal(t, core.ViewDashboard, s.Snapshot().Session.CurrentView)

	require.NoError(t, s.SelectCategory(core.CategoryRent))
	require.NoError(t, s.SelectCategory(core.CategoryLabor))
	assert.Equal(t, core.CategoryLabor, s.Snapshot().Session.SelectedCategory)

	err := s.SelectCategory("travel")
	require.ErrorIs(t, err, core.ErrUnknownCategory)
	assert.Equal(t, core.CategoryLabor, s.Snapshot().Session.SelectedCategory)

	assert.Nil(t, mem.Blob(), "view and selection changes must not persist")
}

func TestAddExpense(t *testing.T) {
	ctx := context.Background()

	t.Run("success appends, clears selection and saves", func(t *testing.T) {
		pub := &recordingPublisher{}
		s, mem := newInitialized(t, WithPublisher(pub))
		require.NoError(t, s.SelectCategory(core.CategoryAdvertising))

		err := s.AddExpense(ctx, core.ExpenseDraft{Date: "2025-09-01", Amount: 5000, Memo: ""})
		require.NoError(t, err)

		state := s.Snapshot()
		require.Len(t, state.Ledger.Expenses, 4)
		assert.Equal(t, core.Expense{Date: "2025-09-01", Amount: 5000, Category: core.CategoryAdvertising}, state.Ledger.Expenses[3])
		assert.Empty(t, state.Session.SelectedCategory)

		persisted, err := mem.Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, persisted)
		assert.Equal(t, state.Ledger, *persisted)

		require.Len(t, pub.events, 1)
		assert.Equal(t, 3, pub.indexes[0])
	})

	t.Run("validation failures change nothing", func(t *testing.T) {
		cases := []struct {
			name     string
			selected core.Category
			draft    core.ExpenseDraft
		}{
			{"amount zero", core.CategoryRent, core.ExpenseDraft{Date: "2025-09-01", Amount: 0}},
			{"amount missing", core.CategoryRent, core.ExpenseDraft{Date: "2025-09-01"}},
			{"category missing", "", core.ExpenseDraft{Date: "2025-09-01", Amount: 10}},
			{"date empty", core.CategoryRent, core.ExpenseDraft{Date: "", Amount: 10}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				pub := &recordingPublisher{}
				s, mem := newInitialized(t, WithPublisher(pub))
				if tc.selected != "" {
					require.NoError(t, s.SelectCategory(tc.selected))
				}

				err := s.AddExpense(ctx, tc.draft)
				require.ErrorIs(t, err, core.ErrValidation)

				state := s.Snapshot()
				assert.Len(t, state.Ledger.Expenses, 3)
				assert.Equal(t, tc.selected, state.Session.SelectedCategory)
				assert.Nil(t, mem.Blob())
				assert.Empty(t, pub.events)
			})
		}
	})

	t.Run("save failure rolls back", func(t *testing.T) {
		s, mem := newInitialized(t)
		require.NoError(t, s.SelectCategory(core.CategoryOther))
		mem.FailSave = errors.New("disk full")

		err := s.AddExpense(ctx, core.ExpenseDraft{Date: "2025-09-01", Amount: 10})
		require.Error(t, err)
		assert.NotErrorIs(t, err, core.ErrValidation)

		state := s.Snapshot()
		assert.Len(t, state.Ledger.Expenses, 3)
		assert.Equal(t, core.CategoryOther, state.Session.SelectedCategory)
	})

	t.Run("publisher failure does not fail the add", func(t *testing.T) {
		pub := &recordingPublisher{err: errors.New("broker down")}
		s, _ := newInitialized(t, WithPublisher(pub))
		require.NoError(t, s.SelectCategory(core.CategoryRent))

		require.NoError(t, s.AddExpense(ctx, core.ExpenseDraft{Date: "2025-09-01", Amount: 10}))
		assert.Len(t, s.Snapshot().Ledger.Expenses, 4)
	})

	t.Run("before initialize", func(t *testing.T) {
		s := New(storage.NewMemoryStore())
		err := s.AddExpense(ctx, core.ExpenseDraft{Date: "2025-09-01", Amount: 10})
		require.ErrorIs(t, err, ErrNotInitialized)
	})
}

func TestSnapshotIsACopy(t *testing.T) {
	s, _ := newInitialized(t)
	snap := s.Snapshot()
	snap.Ledger.Expenses[0].Amount = 1
	snap.Ledger.Expenses = snap.Ledger.Expenses[:1]

	assert.Len(t, s.Snapshot().Ledger.Expenses, 3)
	assert.Equal(t, int64(32000), s.Snapshot().Ledger.Expenses[0].Amount)
}
