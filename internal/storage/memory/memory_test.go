package memory

import (
	"context"
	"errors"
	"testing"

	"spendlog/internal/storage"
)

func TestMemoryStoreGetSet(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, found, err := s.Get(ctx, "k"); err != nil || found {
		t.Fatalf("expected missing key, found=%v err=%v", found, err)
	}

	if err := s.Set(ctx, "k", []byte("one")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "k", []byte("two")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, found, err := s.Get(ctx, "k")
	if err != nil || !found || string(got) != "two" {
		t.Fatalf("unexpected get: %q found=%v err=%v", got, found, err)
	}

	// Mutating the returned slice must not leak into the store.
	got[0] = 'X'
	again, _, _ := s.Get(ctx, "k")
	if string(again) != "two" {
		t.Fatalf("stored blob was mutated: %q", again)
	}
}

func TestMemoryStoreEmptyKey(t *testing.T) {
	s := New()
	if err := s.Set(context.Background(), "", nil); !errors.Is(err, storage.ErrEmptyKey) {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
	if _, _, err := s.Get(context.Background(), ""); !errors.Is(err, storage.ErrEmptyKey) {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}
