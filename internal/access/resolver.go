// Package access answers "may this subject touch this resource right now".
package access

import (
	"context"
	"log/slog"

	"dataportal/internal/grant"
	"dataportal/internal/platform/metrics"
	"dataportal/internal/rolepolicy"
	"dataportal/pkg/domain"
	pkgerrors "dataportal/pkg/domain-errors"
)

// Reason is the enumerated explanation attached to every check result.
type Reason string

const (
	// ReasonPrivilegedRole: the role bypasses per-resource grants entirely.
	ReasonPrivilegedRole Reason = "PRIVILEGED_ROLE"
	// ReasonGranted: a grant exists for (subject, resource).
	ReasonGranted Reason = "GRANTED"
	// ReasonNoGrant: no privilege and no grant.
	ReasonNoGrant Reason = "NO_GRANT"
)

// CheckResult is the outcome of one access check.
type CheckResult struct {
	Allowed bool
	Reason  Reason
}

// GrantLookup is the read-only slice of the grant service the resolver
// consults on the slow path.
type GrantLookup interface {
	Lookup(ctx context.Context, subject, resourceRef string) (grant.Grant, error)
}

// Resolver evaluates access checks: role policy first (fast path), then the
// grant store (slow path). It holds no cache — grants change between calls,
// so every check re-reads the store snapshot.
type Resolver struct {
	grants  GrantLookup
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewResolver(grants GrantLookup, m *metrics.Metrics, logger *slog.Logger) *Resolver {
	return &Resolver{grants: grants, metrics: m, logger: logger}
}

// CanAccess reports whether the subject may access the resource, with the
// reason. Pure with respect to the grant store snapshot at call time.
func (r *Resolver) CanAccess(ctx context.Context, subject string, role domain.Role, resourceRef string) (CheckResult, error) {
	if subject == "" || resourceRef == "" {
		return CheckResult{}, pkgerrors.New(pkgerrors.CodeValidation, "subject and resource_ref are required")
	}

	if rolepolicy.BypassesGrantCheck(role) {
		r.count(ReasonPrivilegedRole)
		return CheckResult{Allowed: true, Reason: ReasonPrivilegedRole}, nil
	}

	_, err := r.grants.Lookup(ctx, subject, resourceRef)
	switch {
	case err == nil:
		r.count(ReasonGranted)
		return CheckResult{Allowed: true, Reason: ReasonGranted}, nil
	case pkgerrors.Is(err, pkgerrors.CodeNotFound):
		r.count(ReasonNoGrant)
		return CheckResult{Allowed: false, Reason: ReasonNoGrant}, nil
	default:
		return CheckResult{}, err
	}
}

func (r *Resolver) count(reason Reason) {
	if r.metrics != nil {
		r.metrics.IncAccessCheck(string(reason))
	}
}
