package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/opticode/core/storage"
)

func newSQLiteStore(t *testing.T) (*storage.SQLiteStore, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "store.db")
	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, path
}

func TestSQLiteStore_GetSet(t *testing.T) {
	ctx := context.Background()
	store, _ := newSQLiteStore(t)

	if err := store.Set(ctx, "key1", []byte("value1")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(ctx, "key1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "value1" {
		t.Errorf("got %q, want %q", got, "value1")
	}
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	ctx := context.Background()
	store, _ := newSQLiteStore(t)

	_, err := store.Get(ctx, "missing")
	if !errors.Is(err, storage.ErrKeyNotFound) {
		t.Errorf("got error %v, want ErrKeyNotFound", err)
	}
}

func TestSQLiteStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	store, _ := newSQLiteStore(t)

	store.Set(ctx, "key1", []byte("first"))
	if err := store.Set(ctx, "key1", []byte("second")); err != nil {
		t.Fatalf("overwrite Set failed: %v", err)
	}

	got, _ := store.Get(ctx, "key1")
	if string(got) != "second" {
		t.Errorf("got %q, want %q", got, "second")
	}
}

func TestSQLiteStore_DeleteMissingIsNoOp(t *testing.T) {
	ctx := context.Background()
	store, _ := newSQLiteStore(t)

	if err := store.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete of missing key should be a no-op, got %v", err)
	}
}

func TestSQLiteStore_KeysSorted(t *testing.T) {
	ctx := context.Background()
	store, _ := newSQLiteStore(t)

	store.Set(ctx, "b", []byte("2"))
	store.Set(ctx, "a", []byte("1"))

	keys, err := store.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("got keys %v, want [a b]", keys)
	}
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	store, path := newSQLiteStore(t)

	store.Set(ctx, "durable", []byte("payload"))
	store.Close()

	reopened, err := storage.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "durable")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("got %q, want %q", got, "payload")
	}
}
