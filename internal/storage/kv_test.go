package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func backends(t *testing.T) map[string]KV {
	t.Helper()
	dir := t.TempDir()

	file, err := NewFile(filepath.Join(dir, "files"))
	if err != nil {
		t.Fatalf("file backend: %v", err)
	}
	db, err := NewSQLite(filepath.Join(dir, "db", "test.db"))
	if err != nil {
		t.Fatalf("sqlite backend: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return map[string]KV{
		"memory": NewMemory(),
		"file":   file,
		"sqlite": db,
	}
}

func TestKVRoundTripAndOverwrite(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := kv.Get(ctx, "finance-store"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound on empty store, got %v", err)
			}
			if err := kv.Put(ctx, "finance-store", []byte(`{"a":1}`)); err != nil {
				t.Fatalf("put: %v", err)
			}
			if err := kv.Put(ctx, "finance-store", []byte(`{"a":2}`)); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, err := kv.Get(ctx, "finance-store")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if string(got) != `{"a":2}` {
				t.Fatalf("got %s", got)
			}
		})
	}
}

func TestFileKeySanitised(t *testing.T) {
	f, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if got := filepath.Base(f.path("../evil/key")); got != ".._evil_key.json" {
		t.Fatalf("path = %s", got)
	}
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fintrack.db")

	db, err := NewSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = NewSQLite(path)
	if err != nil {
		t.Fatalf("reopen (migrations must be idempotent): %v", err)
	}
	defer db.Close()
	got, err := db.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("got %q, %v", got, err)
	}
}
