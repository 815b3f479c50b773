package storage

import (
	"context"
	"sync"

	"fleets-server/internal/world"
)

// MemoryStore keeps the encoded document in process memory, so callers
// never share maps with it.
type MemoryStore struct {
	mu  sync.RWMutex
	doc []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (*world.World, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return nil, ErrWorldNotFound
	}
	return decodeDocument(s.doc)
}

func (s *MemoryStore) Replace(ctx context.Context, w *world.World) error {
	raw, err := encodeDocument(w)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.doc = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Seed(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc != nil {
		return false, nil
	}
	raw, err := encodeDocument(world.New())
	if err != nil {
		return false, err
	}
	s.doc = raw
	return true, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
