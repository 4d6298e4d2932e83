// Package profiles defines persistence-facing contracts for named, reusable
// write concerns ("majority", "fast", ...) that policies and applications can
// reference instead of spelling concerns inline. Store implementations are
// supplied by consumers; the core mongoid package stays persistence-agnostic
// and reaches profiles only through a lookup function.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"time"

	mongoid "github.com/zanker/mongoid"
)

// ErrETagMismatch reports a concurrent profile update detected via ETag.
var ErrETagMismatch = errors.New("profiles: etag mismatch")

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads/saves one named write concern.
type Store interface {
	Load(ctx context.Context, name string) (concern mongoid.WriteConcern, meta Meta, ok bool, err error)
	Save(ctx context.Context, name string, concern mongoid.WriteConcern, meta Meta) (Meta, error)
}

// Mutator adjusts a profile in place during Mutate.
type Mutator func(*mongoid.WriteConcern) error

// Registry orchestrates profile access on top of a Store.
type Registry struct {
	Store Store
}

// Builtin returns the conventional profile set applications usually seed
// their store with.
func Builtin() map[string]mongoid.WriteConcern {
	journaled := true
	return map[string]mongoid.WriteConcern{
		"majority":       mongoid.Concern("majority"),
		"acknowledged":   mongoid.Safe(),
		"unacknowledged": mongoid.Unsafe(),
		"journaled":      {W: 1, Journal: &journaled},
	}
}

// Seed saves every entry of concerns into store, keeping existing metadata.
func Seed(ctx context.Context, store Store, concerns map[string]mongoid.WriteConcern) error {
	if store == nil {
		return fmt.Errorf("profiles: store is required")
	}
	for name, concern := range concerns {
		if _, err := store.Save(ctx, name, concern, Meta{}); err != nil {
			return fmt.Errorf("profiles: seed %q: %w", name, err)
		}
	}
	return nil
}

// Lookup resolves a named profile. Its signature matches
// mongoid.ProfileLookup so a Registry can be wired straight into a policy
// engine.
func (r Registry) Lookup(ctx context.Context, name string) (mongoid.WriteConcern, bool, error) {
	if r.Store == nil {
		return mongoid.WriteConcern{}, false, fmt.Errorf("profiles: store is required")
	}
	if name == "" {
		return mongoid.WriteConcern{}, false, fmt.Errorf("profiles: name is required")
	}
	concern, _, ok, err := r.Store.Load(ctx, name)
	if err != nil {
		return mongoid.WriteConcern{}, false, fmt.Errorf("profiles: load %q: %w", name, err)
	}
	return concern, ok, nil
}

// Mutate loads a profile, applies fn, and saves the result. When meta carries
// an ETag it must match the stored one, guarding against concurrent updates.
func (r Registry) Mutate(ctx context.Context, name string, meta Meta, fn Mutator) (mongoid.WriteConcern, Meta, error) {
	if r.Store == nil {
		return mongoid.WriteConcern{}, Meta{}, fmt.Errorf("profiles: store is required")
	}
	if name == "" {
		return mongoid.WriteConcern{}, Meta{}, fmt.Errorf("profiles: name is required")
	}
	if fn == nil {
		return mongoid.WriteConcern{}, Meta{}, fmt.Errorf("profiles: mutator is required")
	}

	concern, loadedMeta, ok, err := r.Store.Load(ctx, name)
	if err != nil {
		return mongoid.WriteConcern{}, Meta{}, fmt.Errorf("profiles: load %q: %w", name, err)
	}
	if !ok {
		concern = mongoid.WriteConcern{}
		loadedMeta = Meta{}
	}

	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return mongoid.WriteConcern{}, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	if err := fn(&concern); err != nil {
		return mongoid.WriteConcern{}, loadedMeta, err
	}

	saveMeta := mergeMeta(loadedMeta, meta)
	savedMeta, err := r.Store.Save(ctx, name, concern, saveMeta)
	if err != nil {
		return mongoid.WriteConcern{}, loadedMeta, fmt.Errorf("profiles: save %q: %w", name, err)
	}
	return concern, savedMeta, nil
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}
