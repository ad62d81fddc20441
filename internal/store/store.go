// Package store is the single source of truth for the finance state. Reads go
// through narrow per-slice selectors; all writes go through the Actions
// bundle returned by Store.Actions.
//
// Every action replaces only the collection it touches with a fresh slice.
// Slices handed out by selectors are shared and must be treated as
// read-only; in exchange, a selector returns the identical slice for as long
// as that collection has not changed.
package store

import (
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ids"
	"fintrack/internal/log"
)

// Saver receives the full state after every change. Implementations must not
// fail loudly; see persist.Persister.
type Saver interface {
	Save(state core.State)
}

type Store struct {
	// writeMu serialises actions end to end, including save and notify, so
	// changes are persisted and announced in the order they were applied.
	writeMu sync.Mutex

	mu    sync.RWMutex
	state core.State

	ids     ids.Generator
	saver   Saver
	now     func() time.Time
	logger  *slog.Logger
	actions *Actions

	subs   *subscriptions
	seeded bool
}

type Option func(*Store)

func WithIDGenerator(g ids.Generator) Option {
	return func(s *Store) { s.ids = g }
}

func WithSaver(saver Saver) Option {
	return func(s *Store) { s.saver = saver }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithInitialState seeds the store, typically with the persisted state.
func WithInitialState(state core.State) Option {
	return func(s *Store) {
		s.state = state
		s.seeded = true
	}
}

// New builds a store. Without WithInitialState it starts from the built-in
// dataset for the current month.
func New(opts ...Option) *Store {
	s := &Store{
		ids:    ids.NewULID(),
		now:    time.Now,
		logger: slog.Default(),
		subs:   newSubscriptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.seeded {
		s.state = core.DefaultState(s.now())
	}
	s.actions = &Actions{s: s}
	return s
}

// Transactions returns the current transactions slice. Read-only.
func (s *Store) Transactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Transactions
}

// Budgets returns the current budgets slice. Read-only.
func (s *Store) Budgets() []core.Budget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Budgets
}

// Goals returns the current goals slice. Read-only.
func (s *Store) Goals() []core.Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Goals
}

// Settings returns the current settings. Its slices are shared and read-only.
func (s *Store) Settings() core.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Settings
}

func (s *Store) CurrentMonth() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CurrentMonth
}

// Snapshot returns the whole state tree as of now.
func (s *Store) Snapshot() core.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Actions returns the write bundle. The same pointer is returned for the
// lifetime of the store.
func (s *Store) Actions() *Actions {
	return s.actions
}

// Subscribe registers fn for changes to one slice of the state. The returned
// function removes the registration. Listeners run synchronously after the
// change is persisted and must not call actions.
func (s *Store) Subscribe(slice Slice, fn Listener) (unsubscribe func()) {
	return s.subs.add(slice, fn)
}

// commit applies mutate to a copy of the state under the write lock. mutate
// returns the id of the entity it touched and whether anything changed; when
// nothing changed the state is not swapped, saved or announced.
func (s *Store) commit(slice Slice, op string, mutate func(st *core.State) (string, bool)) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	next := s.state
	s.mu.RUnlock()

	id, changed := mutate(&next)
	if !changed {
		s.logger.Debug("Action matched nothing", log.FieldComponent, log.ComponentStore, log.FieldSlice, string(slice), log.FieldOperation, op, log.FieldEntityID, id)
		return false
	}

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	if s.saver != nil {
		s.saver.Save(next)
	}

	s.logger.Debug("State changed", log.FieldComponent, log.ComponentStore, log.FieldSlice, string(slice), log.FieldOperation, op, log.FieldEntityID, id)
	s.subs.notify(Change{
		Slice:        slice,
		Op:           op,
		ID:           id,
		CurrentMonth: next.CurrentMonth,
		At:           s.now(),
	})
	return true
}
