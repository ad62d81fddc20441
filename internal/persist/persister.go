package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// DefaultKey is the fixed identifier the state record is stored under.
const DefaultKey = "finance-store"

// Source tells where a loaded state came from.
type Source string

const (
	FromStorage  Source = "storage"
	FromDefaults Source = "defaults"
	// FromRecovery means a record existed but could not be read.
	FromRecovery Source = "recovery"
)

// Persister writes the full state to a KV under one key after every change
// and restores it on start. Failures never reach the caller: a bad record
// yields the defaults and a failed write leaves memory authoritative.
type Persister struct {
	kv      storage.KV
	key     string
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

type Option func(*Persister)

func WithKey(key string) Option {
	return func(p *Persister) { p.key = key }
}

func WithTimeout(d time.Duration) Option {
	return func(p *Persister) { p.timeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(p *Persister) { p.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Persister) { p.logger = l }
}

func New(kv storage.KV, opts ...Option) *Persister {
	p := &Persister{
		kv:      kv,
		key:     DefaultKey,
		timeout: 2 * time.Second,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load returns the stored state, or the built-in dataset when nothing usable
// is stored.
func (p *Persister) Load(ctx context.Context) (core.State, Source) {
	data, err := p.kv.Get(ctx, p.key)
	if errors.Is(err, storage.ErrNotFound) {
		p.logger.InfoContext(ctx, "No stored state, using defaults", "key", p.key)
		return core.DefaultState(p.now()), FromDefaults
	}
	if err != nil {
		p.logger.WarnContext(ctx, "Reading stored state failed, using defaults", "key", p.key, "error", err)
		return core.DefaultState(p.now()), FromRecovery
	}

	state, err := Decode(data, p.now())
	if err != nil {
		p.logger.WarnContext(ctx, "Stored state unreadable, using defaults", "key", p.key, "error", err, "bytes", len(data))
		return core.DefaultState(p.now()), FromRecovery
	}

	p.logger.InfoContext(ctx, "Restored stored state",
		"key", p.key,
		"transactions", len(state.Transactions),
		"budgets", len(state.Budgets),
		"goals", len(state.Goals))
	return state, FromStorage
}

// Save writes state and swallows any failure.
func (p *Persister) Save(state core.State) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.SaveContext(ctx, state); err != nil {
		p.logger.WarnContext(ctx, "Persisting state failed, keeping in-memory state", "key", p.key, "error", err)
	}
}

// SaveContext is Save for callers that want to see the error.
func (p *Persister) SaveContext(ctx context.Context, state core.State) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}
	if err := p.kv.Put(ctx, p.key, data); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}
