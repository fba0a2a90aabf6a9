package grant

import (
	"context"
	"errors"
	"log/slog"

	"dataportal/internal/platform/metrics"
	"dataportal/pkg/domain"
	pkgerrors "dataportal/pkg/domain-errors"
	"dataportal/pkg/platform/audit"
	"dataportal/pkg/platform/sentinel"
	"dataportal/pkg/requestcontext"
)

// Auditor is the audit emission port. Emission is fail-closed: a mutation
// whose audit event cannot be persisted reports failure to the caller.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns grant mutations and lookups. The lifecycle manager triggers
// mutations through it and never edits grant fields directly.
type Service struct {
	store   Store
	auditor Auditor
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(store Store, auditor Auditor, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{store: store, auditor: auditor, metrics: m, logger: logger}
}

// Upsert materializes a grant for (subject, resource), replacing any
// existing one. Always succeeds given non-empty identifiers; repeated calls
// are idempotent in effect.
func (s *Service) Upsert(ctx context.Context, subject, resourceRef string, level domain.AccessLevel, grantedBy string) (Grant, error) {
	if subject == "" || resourceRef == "" || grantedBy == "" {
		return Grant{}, pkgerrors.New(pkgerrors.CodeValidation, "subject, resource_ref, and granted_by are required")
	}
	g := Grant{
		Subject:     subject,
		ResourceRef: resourceRef,
		Level:       level,
		GrantedBy:   grantedBy,
		GrantedAt:   requestcontext.Now(ctx),
	}
	if err := s.store.Upsert(ctx, g); err != nil {
		return Grant{}, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to store grant")
	}
	if err := s.auditor.Emit(ctx, audit.Event{
		ActorSubject: grantedBy,
		Action:       audit.ActionGrantAdded,
		EntityType:   audit.EntityGrant,
		EntityID:     subject + "/" + resourceRef,
		Detail: map[string]string{
			"subject":      subject,
			"resource_ref": resourceRef,
			"level":        string(level),
		},
	}); err != nil {
		return Grant{}, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "grant stored but audit append failed")
	}
	if s.metrics != nil {
		s.metrics.GrantsAdded.Inc()
	}
	s.logger.InfoContext(ctx, "grant upserted",
		"subject", subject,
		"resource_ref", resourceRef,
		"level", level,
		"granted_by", grantedBy,
	)
	return g, nil
}

// Revoke removes the grant for (subject, resource) and reports whether one
// existed. A no-op revoke emits no audit event, so calling it twice is safe.
func (s *Service) Revoke(ctx context.Context, subject, resourceRef, actorSubject string) (bool, error) {
	if subject == "" || resourceRef == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "subject and resource_ref are required")
	}
	if actorSubject == "" {
		return false, pkgerrors.New(pkgerrors.CodeUnauthorized, "revoke must name an actor subject")
	}
	removed, err := s.store.Revoke(ctx, subject, resourceRef)
	if err != nil {
		return false, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to revoke grant")
	}
	if !removed {
		return false, nil
	}
	if err := s.auditor.Emit(ctx, audit.Event{
		ActorSubject: actorSubject,
		Action:       audit.ActionGrantRevoked,
		EntityType:   audit.EntityGrant,
		EntityID:     subject + "/" + resourceRef,
		Detail: map[string]string{
			"subject":      subject,
			"resource_ref": resourceRef,
		},
	}); err != nil {
		return true, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "grant revoked but audit append failed")
	}
	if s.metrics != nil {
		s.metrics.GrantsRevoked.Inc()
	}
	s.logger.InfoContext(ctx, "grant revoked",
		"subject", subject,
		"resource_ref", resourceRef,
		"actor", actorSubject,
	)
	return true, nil
}

// Lookup is a pure read with no side effects.
func (s *Service) Lookup(ctx context.Context, subject, resourceRef string) (Grant, error) {
	g, err := s.store.Lookup(ctx, subject, resourceRef)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Grant{}, pkgerrors.New(pkgerrors.CodeNotFound, "no grant for subject and resource")
		}
		return Grant{}, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "grant lookup failed")
	}
	return g, nil
}
