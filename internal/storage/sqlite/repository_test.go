package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"spendlog/internal/storage"
)

func newTestRepository(t *testing.T) (*Repository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db", "spendlog.db")
	repo, err := NewRepository(path)
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestRepositoryGetSet(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	if _, found, err := repo.Get(ctx, storage.DefaultKey); err != nil || found {
		t.Fatalf("expected missing key, found=%v err=%v", found, err)
	}

	if err := repo.Set(ctx, storage.DefaultKey, []byte(`[]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := repo.Set(ctx, storage.DefaultKey, []byte(`[{"name":"Bus","amount":2.25,"category":"Transport"}]`)); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, found, err := repo.Get(ctx, storage.DefaultKey)
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if string(got) != `[{"name":"Bus","amount":2.25,"category":"Transport"}]` {
		t.Fatalf("unexpected blob %s", got)
	}
}

func TestRepositoryReopenKeepsData(t *testing.T) {
	repo, path := newTestRepository(t)
	ctx := context.Background()
	if err := repo.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("set: %v", err)
	}
	repo.Close()

	// Migrations must be idempotent on an existing database.
	again, err := NewRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()

	got, found, err := again.Get(ctx, "k")
	if err != nil || !found || string(got) != "v" {
		t.Fatalf("unexpected get after reopen: %q found=%v err=%v", got, found, err)
	}
}

func TestRepositoryEmptyKey(t *testing.T) {
	repo, _ := newTestRepository(t)
	if err := repo.Set(context.Background(), "", []byte("x")); err != storage.ErrEmptyKey {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}
