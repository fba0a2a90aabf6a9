package audit

import "context"

// Store is the append-only persistence boundary for audit events.
// Implementations must make Append durable before returning: the emitting
// operation is not considered committed until its event is stored.
type Store interface {
	Append(ctx context.Context, event Event) error
	// ListRecent returns up to limit events, newest first. Ordering is
	// stable: ties on timestamp preserve append order.
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
