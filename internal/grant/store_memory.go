package grant

import (
	"context"
	"sync"

	"dataportal/pkg/platform/sentinel"
)

type grantKey struct {
	subject  string
	resource string
}

// InMemoryStore keeps grants in a map guarded by a single RWMutex. The lock
// makes same-key upserts atomic; contention is irrelevant at this scale.
type InMemoryStore struct {
	mu     sync.RWMutex
	grants map[grantKey]Grant
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{grants: make(map[grantKey]Grant)}
}

func (s *InMemoryStore) Upsert(_ context.Context, g Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[grantKey{g.Subject, g.ResourceRef}] = g
	return nil
}

func (s *InMemoryStore) Revoke(_ context.Context, subject, resourceRef string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := grantKey{subject, resourceRef}
	if _, ok := s.grants[key]; !ok {
		return false, nil
	}
	delete(s.grants, key)
	return true, nil
}

func (s *InMemoryStore) Lookup(_ context.Context, subject, resourceRef string) (Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grants[grantKey{subject, resourceRef}]
	if !ok {
		return Grant{}, sentinel.ErrNotFound
	}
	return g, nil
}
