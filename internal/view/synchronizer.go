package view

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"echobo/internal/core"
	"echobo/internal/log"
	"echobo/internal/store"
)

// Partial tells the presentation layer how much of the page a result replaces.
type Partial int

const (
	PartialNone Partial = iota
	PartialScreen
	PartialCategoryChooser
)

// Result is the outcome of a dispatched action.
type Result struct {
	Screen   *Screen
	Partial  Partial
	Message  string
	Blocking bool
	Download *Download
}

// Download is a file the client should save.
type Download struct {
	FileName    string
	ContentType string
	Body        []byte
}

// Synchronizer renders the current view from the store and keeps the
// screen's handlers bound. Every entry point takes the turn lock, so one
// user action runs to completion before the next starts.
type Synchronizer struct {
	turn     sync.Mutex
	store    *store.Store
	bindings *Bindings
	now      func() time.Time
	logger   *log.Logger
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithClock overrides the clock used for the form's default date.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) { s.now = now }
}

// WithLogger sets the synchronizer logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Synchronizer) { s.logger = l }
}

func NewSynchronizer(st *store.Store, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		store:    st,
		bindings: NewBindings(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	s.logger = s.logger.WithComponent(log.ComponentView)
	return s
}

// Bindings exposes the handler table, mainly for inspection.
func (s *Synchronizer) Bindings() *Bindings { return s.bindings }

// Sync renders the current view and rebinds its handlers.
func (s *Synchronizer) Sync(ctx context.Context) Screen {
	s.turn.Lock()
	defer s.turn.Unlock()
	return s.sync(ctx)
}

// Navigate switches to the requested view. Unknown names land on the
// dashboard.
func (s *Synchronizer) Navigate(ctx context.Context, requested string) Screen {
	s.turn.Lock()
	defer s.turn.Unlock()
	return s.navigate(ctx, core.ParseView(requested))
}

// Dispatch runs the handler bound by the latest render for action.
func (s *Synchronizer) Dispatch(ctx context.Context, action Action, form url.Values) (Result, error) {
	s.turn.Lock()
	defer s.turn.Unlock()

	h, ok := s.bindings.Lookup(action)
	if !ok {
		s.logger.WarnContext(ctx, "Action not bound on current screen",
			log.FieldOperation, log.OpDispatch,
			log.FieldAction, string(action),
			log.FieldView, string(s.store.Snapshot().Session.CurrentView))
		return Result{}, fmt.Errorf("%w: %s", ErrActionNotBound, action)
	}
	return h(ctx, form)
}

func (s *Synchronizer) sync(ctx context.Context) Screen {
	sc := Render(s.store.Snapshot(), s.now())
	s.bindings.Rebind(s.handlersFor(sc.Actions))
	s.logger.DebugContext(ctx, "Screen rendered",
		log.FieldOperation, log.OpRender,
		log.FieldView, string(sc.View),
		"bound_actions", len(sc.Actions))
	return sc
}

func (s *Synchronizer) navigate(ctx context.Context, v core.View) Screen {
	s.store.SetView(v)
	sc := s.sync(ctx)
	sc.ResetScroll = true
	s.logger.InfoContext(ctx, "Navigated",
		log.FieldOperation, log.OpNavigate,
		log.FieldView, string(sc.View))
	return sc
}

func (s *Synchronizer) handlersFor(actions []Action) map[Action]Handler {
	set := make(map[Action]Handler, len(actions))
	for _, a := range actions {
		switch a {
		case ActionSelectCategory:
			set[a] = s.selectCategory
		case ActionSubmitExpense:
			set[a] = s.submitExpense
		case ActionExportCSV:
			set[a] = s.exportCSV
		}
	}
	return set
}
