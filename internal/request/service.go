package request

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"dataportal/internal/grant"
	"dataportal/internal/platform/metrics"
	"dataportal/internal/rolepolicy"
	"dataportal/pkg/domain"
	pkgerrors "dataportal/pkg/domain-errors"
	"dataportal/pkg/platform/audit"
	"dataportal/pkg/platform/sentinel"
	"dataportal/pkg/requestcontext"
)

// minReasonLength is enforced after trimming whitespace.
const minReasonLength = 5

// Auditor is the audit emission port shared with the grant service.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// GrantMaterializer is the slice of the grant service the lifecycle manager
// needs: materializing grants on approval. It never edits grant fields
// directly.
type GrantMaterializer interface {
	Upsert(ctx context.Context, subject, resourceRef string, level domain.AccessLevel, grantedBy string) (grant.Grant, error)
}

// Service owns the access request lifecycle: submission, the decide state
// machine, listing, and grant reconciliation after partial failures.
type Service struct {
	store   Store
	grants  GrantMaterializer
	auditor Auditor
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(store Store, grants GrantMaterializer, auditor Auditor, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{store: store, grants: grants, auditor: auditor, metrics: m, logger: logger}
}

// SubmitInput carries the raw, unvalidated submission fields.
type SubmitInput struct {
	RequesterSubject string
	ResourceRef      string
	AccessLevel      string
	Reason           string
}

// Submit creates a new PENDING access request. Duplicate submissions for the
// same (subject, resource) pair are allowed: deduplication is a policy
// decision left to the caller.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (AccessRequest, error) {
	if in.RequesterSubject == "" {
		return AccessRequest{}, pkgerrors.New(pkgerrors.CodeValidation, "requester_subject is required")
	}
	if in.ResourceRef == "" {
		return AccessRequest{}, pkgerrors.New(pkgerrors.CodeValidation, "resource_ref is required")
	}
	level, err := domain.ParseAccessLevel(in.AccessLevel)
	if err != nil {
		return AccessRequest{}, err
	}
	reason := strings.TrimSpace(in.Reason)
	if len(reason) < minReasonLength {
		return AccessRequest{}, pkgerrors.Newf(pkgerrors.CodeValidation, "reason must be at least %d characters", minReasonLength)
	}

	req := AccessRequest{
		ID:               domain.NewRequestID(),
		ResourceRef:      in.ResourceRef,
		RequesterSubject: in.RequesterSubject,
		AccessLevel:      level,
		Reason:           reason,
		Status:           StatusPending,
		CreatedAt:        requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, req); err != nil {
		return AccessRequest{}, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to store access request")
	}
	if err := s.auditor.Emit(ctx, audit.Event{
		ActorSubject: in.RequesterSubject,
		Action:       audit.ActionRequestSubmitted,
		EntityType:   audit.EntityAccessRequest,
		EntityID:     req.ID.String(),
		Detail: map[string]string{
			"resource_ref": req.ResourceRef,
			"access_level": string(req.AccessLevel),
		},
	}); err != nil {
		return AccessRequest{}, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "request stored but audit append failed")
	}
	if s.metrics != nil {
		s.metrics.RequestsSubmitted.Inc()
	}
	s.logger.InfoContext(ctx, "access request submitted",
		"request_id", req.ID,
		"requester", req.RequesterSubject,
		"resource_ref", req.ResourceRef,
		"access_level", req.AccessLevel,
	)
	return req, nil
}

// Decide transitions a PENDING request to APPROVED or REJECTED.
//
// Preconditions are checked in order: the request must exist, must still be
// PENDING, and the approver's role must carry the decide capability. The
// transition itself is a store-level compare-and-set, so when two approvers
// race, exactly one wins and the other observes a conflict — repeated decide
// calls on a terminal request always fail, never silently succeed.
//
// On approval the grant is materialized afterwards. If that write fails the
// status transition has already committed; the error carries the
// partial_failure code and callers recover via Reconcile.
func (s *Service) Decide(ctx context.Context, id domain.RequestID, approverSubject string, approverRole domain.Role, decision Decision, note string) (AccessRequest, error) {
	if approverSubject == "" {
		return AccessRequest{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "decide must name an approver subject")
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return AccessRequest{}, pkgerrors.New(pkgerrors.CodeNotFound, "access request not found")
		}
		return AccessRequest{}, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to load access request")
	}
	if current.Terminal() {
		return AccessRequest{}, pkgerrors.Newf(pkgerrors.CodeConflict, "request is %s, already decided", current.Status)
	}
	if !rolepolicy.CanDecide(approverRole) {
		return AccessRequest{}, pkgerrors.Newf(pkgerrors.CodeForbidden, "role %s cannot decide access requests", approverRole)
	}

	status := StatusApproved
	if decision == DecisionRejected {
		status = StatusRejected
	}
	note = strings.TrimSpace(note)
	if note == "" {
		if decision == DecisionApproved {
			note = defaultApproveNote
		} else {
			note = defaultRejectNote
		}
	}

	decided, err := s.store.DecideIfPending(ctx, id, status, approverSubject, requestcontext.Now(ctx), note)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return AccessRequest{}, pkgerrors.New(pkgerrors.CodeNotFound, "access request not found")
		case errors.Is(err, sentinel.ErrConflict):
			// Lost the race to another decider between the read and the CAS.
			return AccessRequest{}, pkgerrors.New(pkgerrors.CodeConflict, "request already decided")
		}
		return AccessRequest{}, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to decide access request")
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		ActorSubject: approverSubject,
		Action:       audit.ActionRequestDecided,
		EntityType:   audit.EntityAccessRequest,
		EntityID:     decided.ID.String(),
		Detail: map[string]string{
			"decision":     string(decision),
			"resource_ref": decided.ResourceRef,
			"requester":    decided.RequesterSubject,
		},
	}); err != nil {
		return AccessRequest{}, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "decision committed but audit append failed")
	}
	if s.metrics != nil {
		s.metrics.IncDecision(string(decision))
	}
	s.logger.InfoContext(ctx, "access request decided",
		"request_id", decided.ID,
		"decision", decision,
		"approver", approverSubject,
	)

	// Rejection never touches grants: a prior grant for the same pair from an
	// earlier request stays in place until explicitly revoked.
	if decision != DecisionApproved {
		return decided, nil
	}

	if _, err := s.grants.Upsert(ctx, decided.RequesterSubject, decided.ResourceRef, decided.AccessLevel, approverSubject); err != nil {
		s.logger.ErrorContext(ctx, "grant materialization failed after approval",
			"request_id", decided.ID,
			"error", err,
		)
		return decided, pkgerrors.Wrap(err, pkgerrors.CodePartialFailure,
			"request approved but grant not materialized; retry via reconcile for request "+decided.ID.String())
	}
	return decided, nil
}

// List returns requests matching the filter, ordered by created_at
// ascending. The sequence restarts from the top on every call.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]AccessRequest, error) {
	out, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to list access requests")
	}
	return out, nil
}

// Reconcile re-runs grant materialization for an APPROVED request. It is
// idempotent — keyed by request id, the upsert converges on the same grant —
// and is the designated recovery path after a partial_failure decide.
func (s *Service) Reconcile(ctx context.Context, id domain.RequestID, actorSubject string) (grant.Grant, error) {
	if actorSubject == "" {
		return grant.Grant{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "reconcile must name an actor subject")
	}
	req, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return grant.Grant{}, pkgerrors.New(pkgerrors.CodeNotFound, "access request not found")
		}
		return grant.Grant{}, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to load access request")
	}
	if req.Status != StatusApproved {
		return grant.Grant{}, pkgerrors.Newf(pkgerrors.CodeConflict, "request is %s, nothing to reconcile", req.Status)
	}
	g, err := s.grants.Upsert(ctx, req.RequesterSubject, req.ResourceRef, req.AccessLevel, req.DecidedBy)
	if err != nil {
		return grant.Grant{}, err
	}
	s.logger.InfoContext(ctx, "grant reconciled",
		"request_id", req.ID,
		"actor", actorSubject,
	)
	return g, nil
}
