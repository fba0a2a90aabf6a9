package request

import (
	"context"
	"sort"
	"sync"
	"time"

	"dataportal/pkg/domain"
	"dataportal/pkg/platform/sentinel"
)

// InMemoryStore keeps access requests in memory. The store mutex makes the
// read-check-write inside DecideIfPending a single critical section, which
// is what gives the decide operation its one-winner guarantee.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[domain.RequestID]AccessRequest
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requests: make(map[domain.RequestID]AccessRequest)}
}

func (s *InMemoryStore) Create(_ context.Context, req AccessRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = req
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.RequestID) (AccessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return AccessRequest{}, sentinel.ErrNotFound
	}
	return req, nil
}

func (s *InMemoryStore) DecideIfPending(_ context.Context, id domain.RequestID, status Status, decidedBy string, decidedAt time.Time, note string) (AccessRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return AccessRequest{}, sentinel.ErrNotFound
	}
	if req.Status != StatusPending {
		return AccessRequest{}, sentinel.ErrConflict
	}
	req.Status = status
	req.DecidedBy = decidedBy
	req.DecidedAt = &decidedAt
	req.DecisionNote = note
	s.requests[id] = req
	return req, nil
}

func (s *InMemoryStore) List(_ context.Context, filter ListFilter) ([]AccessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]AccessRequest, 0, len(s.requests))
	for _, req := range s.requests {
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.ApproverSubject != "" && req.DecidedBy != filter.ApproverSubject {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
