package request

import (
	"context"
	"time"

	"dataportal/pkg/domain"
)

// Store is the persistence boundary for access requests. Implementations
// must make DecideIfPending linearizable per request id: of two concurrent
// calls exactly one observes PENDING and transitions it; the other receives
// sentinel.ErrConflict.
type Store interface {
	Create(ctx context.Context, req AccessRequest) error
	// Get returns the request or sentinel.ErrNotFound.
	Get(ctx context.Context, id domain.RequestID) (AccessRequest, error)
	// DecideIfPending atomically transitions the request out of PENDING,
	// setting status, decided_by, decided_at, and decision_note in one step.
	// Returns sentinel.ErrNotFound for unknown ids and sentinel.ErrConflict
	// when the request is already terminal.
	DecideIfPending(ctx context.Context, id domain.RequestID, status Status, decidedBy string, decidedAt time.Time, note string) (AccessRequest, error)
	// List returns matching requests ordered by created_at ascending, ties
	// broken by id so the order is stable.
	List(ctx context.Context, filter ListFilter) ([]AccessRequest, error)
}
