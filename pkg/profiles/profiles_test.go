package profiles

import (
	"context"
	"errors"
	"testing"

	mongoid "github.com/zanker/mongoid"
)

func TestSeedAndLookup(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := Seed(ctx, store, Builtin()); err != nil {
		t.Fatalf("unexpected seed error: %v", err)
	}
	registry := Registry{Store: store}

	concern, ok, err := registry.Lookup(ctx, "majority")
	if err != nil {
		t.Fatalf("unexpected lookup error: %v", err)
	}
	if !ok {
		t.Fatal("expected majority profile to exist")
	}
	if concern.W != "majority" {
		t.Fatalf("expected w=majority, got %#v", concern.W)
	}

	if _, ok, err := registry.Lookup(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected clean miss for unknown profile, got ok=%v err=%v", ok, err)
	}
}

func TestLookupValidatesInputs(t *testing.T) {
	ctx := context.Background()
	if _, _, err := (Registry{}).Lookup(ctx, "majority"); err == nil {
		t.Fatal("expected error for missing store")
	}
	if _, _, err := (Registry{Store: NewMemoryStore()}).Lookup(ctx, ""); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestMutateCreatesAndUpdates(t *testing.T) {
	ctx := context.Background()
	registry := Registry{Store: NewMemoryStore()}

	concern, meta, err := registry.Mutate(ctx, "reporting", Meta{ETag: "v1"}, func(wc *mongoid.WriteConcern) error {
		wc.W = 2
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected mutate error: %v", err)
	}
	if concern.W != 2 {
		t.Fatalf("expected w=2 after mutate, got %#v", concern.W)
	}
	if meta.ETag != "v1" {
		t.Fatalf("expected etag carried through, got %q", meta.ETag)
	}

	_, _, err = registry.Mutate(ctx, "reporting", Meta{ETag: "stale"}, func(wc *mongoid.WriteConcern) error {
		wc.W = 3
		return nil
	})
	if !errors.Is(err, ErrETagMismatch) {
		t.Fatalf("expected etag mismatch, got %v", err)
	}

	stored, ok, err := registry.Lookup(ctx, "reporting")
	if err != nil || !ok {
		t.Fatalf("expected profile to survive failed mutate, ok=%v err=%v", ok, err)
	}
	if stored.W != 2 {
		t.Fatalf("expected stored w=2, got %#v", stored.W)
	}
}

func TestMutatePropagatesMutatorError(t *testing.T) {
	ctx := context.Background()
	registry := Registry{Store: NewMemoryStore()}
	boom := errors.New("invalid concern")

	if _, _, err := registry.Mutate(ctx, "reporting", Meta{}, func(*mongoid.WriteConcern) error {
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected mutator error, got %v", err)
	}
}

func TestMemoryStoreDetachesSnapshots(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	journaled := true
	if _, err := store.Save(ctx, "durable", mongoid.WriteConcern{W: 1, Journal: &journaled}, Meta{}); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	loaded, _, ok, err := store.Load(ctx, "durable")
	if err != nil || !ok {
		t.Fatalf("unexpected load result ok=%v err=%v", ok, err)
	}
	*loaded.Journal = false

	again, _, _, _ := store.Load(ctx, "durable")
	if again.Journal == nil || !*again.Journal {
		t.Fatal("expected stored journal flag to stay detached from loaded copy")
	}
}
