package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory SessionStore used by tests and as a fallback
// when no durable path is configured. State does not survive restarts.
type MemoryStore struct {
	mu     sync.RWMutex
	rec    SessionRecord
	hasRec bool
	recent []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(_ context.Context) (SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hasRec {
		return SessionRecord{}, ErrNotFound
	}
	return s.rec, nil
}

func (s *MemoryStore) Put(_ context.Context, rec SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.LastCityQuery != "" {
		s.rec.LastCityQuery = rec.LastCityQuery
	}
	if rec.LastLocation != nil {
		loc := *rec.LastLocation
		s.rec.LastLocation = &loc
	}
	s.hasRec = true
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rec = SessionRecord{}
	s.hasRec = false
	s.recent = nil
	return nil
}

func (s *MemoryStore) AddRecentSearch(_ context.Context, query string) error {
	if query == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = pushRecent(s.recent, query)
	return nil
}

func (s *MemoryStore) RecentSearches(_ context.Context, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.recent
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	out := make([]string, len(list))
	copy(out, list)
	return out, nil
}
