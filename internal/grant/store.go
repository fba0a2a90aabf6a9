package grant

import "context"

// Store is the persistence boundary for grants. Implementations must make
// same-key mutations atomic; different keys are independent and need no
// cross-key coordination. Lookup returns sentinel.ErrNotFound when no grant
// exists for the pair.
type Store interface {
	// Upsert stores the grant, replacing any existing grant for the same
	// (subject, resource) pair. Last committed write wins.
	Upsert(ctx context.Context, g Grant) error
	// Revoke removes the grant if present and reports whether one existed.
	Revoke(ctx context.Context, subject, resourceRef string) (bool, error)
	// Lookup returns the grant for the pair, or sentinel.ErrNotFound.
	Lookup(ctx context.Context, subject, resourceRef string) (Grant, error)
}
