// Package backend turns configuration into the storage and persistence
// stack the store runs on.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/ids"
	"fintrack/internal/log"
	"fintrack/internal/persist"
	"fintrack/internal/storage"
)

// Result is everything the composition root needs to build a store.
type Result struct {
	KV        storage.KV
	Persister *persist.Persister
	IDs       ids.Generator
	// Initial is the state loaded at startup and Source says where it came
	// from.
	Initial core.State
	Source  persist.Source
}

// Close releases the storage backend.
func (r *Result) Close() error {
	if r == nil || r.KV == nil {
		return nil
	}
	return r.KV.Close()
}

type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create opens the configured backend and loads the persisted state.
func (f *Factory) Create(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	kv, err := f.openKV(cfg)
	if err != nil {
		return nil, err
	}

	gen, err := ids.New(cfg.IDScheme)
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("id generator: %w", err)
	}

	opts := []persist.Option{persist.WithLogger(f.logger.With(log.FieldComponent, log.ComponentPersist))}
	if cfg.Key != "" {
		opts = append(opts, persist.WithKey(cfg.Key))
	}
	if cfg.PersistTimeout > 0 {
		opts = append(opts, persist.WithTimeout(cfg.PersistTimeout))
	}
	p := persist.New(kv, opts...)

	state, source := p.Load(ctx)
	f.logger.Info("Loaded finance state",
		log.FieldComponent, log.ComponentBackend,
		"backend", cfg.Type.String(),
		"source", string(source),
		"transactions", len(state.Transactions),
		"current_month", state.CurrentMonth)

	return &Result{
		KV:        kv,
		Persister: p,
		IDs:       gen,
		Initial:   state,
		Source:    source,
	}, nil
}

func (f *Factory) openKV(cfg Config) (storage.KV, error) {
	switch cfg.Type {
	case SQLite:
		kv, err := storage.NewSQLite(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", log.FieldComponent, log.ComponentBackend, "db_path", cfg.SQLiteDBPath)
		return kv, nil
	case File:
		kv, err := storage.NewFile(cfg.FileStoreDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file storage: %w", err)
		}
		f.logger.Info("Initialized file backend", log.FieldComponent, log.ComponentBackend, "dir", cfg.FileStoreDir)
		return kv, nil
	case Memory:
		f.logger.Info("Initialized memory backend; state is lost on exit", log.FieldComponent, log.ComponentBackend)
		return storage.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}
