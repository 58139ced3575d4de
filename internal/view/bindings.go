package view

import (
	"context"
	"errors"
	"net/url"
	"sync"
)

// Action names a user input a screen can bind.
type Action string

const (
	ActionSelectCategory Action = "select-category"
	ActionSubmitExpense  Action = "submit-expense"
	ActionExportCSV      Action = "export-csv"
)

var ErrActionNotBound = errors.New("action not bound on the current screen")

// Handler reacts to one bound action.
type Handler func(ctx context.Context, form url.Values) (Result, error)

// Bindings is the handler table of the screen on display. Rebind swaps the
// whole table, so handlers from earlier renders never linger or stack up.
type Bindings struct {
	mu         sync.RWMutex
	handlers   map[Action]Handler
	generation uint64
}

func NewBindings() *Bindings {
	return &Bindings{handlers: map[Action]Handler{}}
}

// Rebind detaches every handler and attaches the given set.
func (b *Bindings) Rebind(set map[Action]Handler) {
	next := make(map[Action]Handler, len(set))
	for a, h := range set {
		next[a] = h
	}
	b.mu.Lock()
	b.handlers = next
	b.generation++
	b.mu.Unlock()
}

// Lookup returns the handler bound to a, if any.
func (b *Bindings) Lookup(a Action) (Handler, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	h, ok := b.handlers[a]
	return h, ok
}

// Len is the number of bound handlers.
func (b *Bindings) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}

// Generation counts rebinds.
func (b *Bindings) Generation() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.generation
}
