// Package memory is an in-process LedgerWriter for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"echobo/internal/core"
	"echobo/internal/sheets"
)

type Store struct {
	mu     sync.Mutex
	header []string
	rows   map[int]core.Expense
	writes int
}

var _ sheets.LedgerWriter = (*Store)(nil)

func New() *Store {
	return &Store{rows: map[int]core.Expense{}}
}

func (s *Store) WriteHeader(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.header = append([]string(nil), sheets.Columns...)
	return nil
}

// WriteExpense stores the record at its row and returns a synthetic
// reference.
func (s *Store) WriteExpense(_ context.Context, index int, e core.Expense) (string, error) {
	if index < 0 {
		return "", fmt.Errorf("invalid record index %d", index)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[index] = e
	s.writes++
	return fmt.Sprintf("mem:%d", sheets.RowFor(index)), nil
}

// Header returns the header row, or nil if never written.
func (s *Store) Header() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.header...)
}

// Rows returns the mirrored records ordered by ledger index.
func (s *Store) Rows() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := make([]int, 0, len(s.rows))
	for i := range s.rows {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	out := make([]core.Expense, len(idx))
	for i, k := range idx {
		out[i] = s.rows[k]
	}
	return out
}

// Writes counts WriteExpense calls, including rewrites of the same row.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
