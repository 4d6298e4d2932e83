package profiles

import (
	"context"
	"sync"

	mongoid "github.com/zanker/mongoid"
)

// MemoryStore is a minimal in-memory Store implementation intended for tests
// and examples.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	concern mongoid.WriteConcern
	meta    Meta
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]memoryRecord{}}
}

func (s *MemoryStore) Load(_ context.Context, name string) (mongoid.WriteConcern, Meta, bool, error) {
	s.mu.RLock()
	record, ok := s.records[name]
	s.mu.RUnlock()
	if !ok {
		return mongoid.WriteConcern{}, Meta{}, false, nil
	}
	return record.concern.Clone(), cloneMeta(record.meta), true, nil
}

func (s *MemoryStore) Save(_ context.Context, name string, concern mongoid.WriteConcern, meta Meta) (Meta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records == nil {
		s.records = map[string]memoryRecord{}
	}
	s.records[name] = memoryRecord{
		concern: concern.Clone(),
		meta:    cloneMeta(meta),
	}
	return cloneMeta(meta), nil
}

func cloneMeta(meta Meta) Meta {
	cloned := meta
	if len(meta.Extra) > 0 {
		cloned.Extra = make(map[string]string, len(meta.Extra))
		for key, value := range meta.Extra {
			cloned.Extra[key] = value
		}
	} else {
		cloned.Extra = nil
	}
	return cloned
}
