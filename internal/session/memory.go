package session

import (
	"context"
	"sync"
)

// MemoryStore keeps sessions in a map. Meant for tests and throwaway dev
// runs; everything is lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]Record)}
}

func (s *MemoryStore) Save(_ context.Context, sid string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[storeKey(sid)] = rec
	return nil
}

func (s *MemoryStore) Load(_ context.Context, sid string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[storeKey(sid)]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) Delete(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, storeKey(sid))
	return nil
}

func (s *MemoryStore) Close() error { return nil }
