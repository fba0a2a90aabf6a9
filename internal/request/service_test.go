package request

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"dataportal/internal/grant"
	"dataportal/pkg/domain"
	pkgerrors "dataportal/pkg/domain-errors"
	"dataportal/pkg/platform/audit"
	auditpublisher "dataportal/pkg/platform/audit/publisher"
	auditmemory "dataportal/pkg/platform/audit/store/memory"
)

// flakyGrants wraps the real grant service and fails the next Upsert on
// demand, for exercising the partial-failure path.
type flakyGrants struct {
	inner    *grant.Service
	failNext bool
}

func (f *flakyGrants) Upsert(ctx context.Context, subject, resourceRef string, level domain.AccessLevel, grantedBy string) (grant.Grant, error) {
	if f.failNext {
		f.failNext = false
		return grant.Grant{}, pkgerrors.New(pkgerrors.CodeInternal, "grant store unavailable")
	}
	return f.inner.Upsert(ctx, subject, resourceRef, level, grantedBy)
}

type RequestServiceSuite struct {
	suite.Suite
	store      *InMemoryStore
	auditStore *auditmemory.InMemoryStore
	grants     *flakyGrants
	service    *Service
}

func TestRequestServiceSuite(t *testing.T) {
	suite.Run(t, new(RequestServiceSuite))
}

func (s *RequestServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = NewInMemoryStore()
	s.auditStore = auditmemory.NewInMemoryStore()
	auditor := auditpublisher.New(s.auditStore, auditpublisher.WithLogger(logger))
	s.grants = &flakyGrants{inner: grant.NewService(grant.NewInMemoryStore(), auditor, nil, logger)}
	s.service = NewService(s.store, s.grants, auditor, nil, logger)
}

func (s *RequestServiceSuite) submit() AccessRequest {
	req, err := s.service.Submit(context.Background(), SubmitInput{
		RequesterSubject: "analyst@x.com",
		ResourceRef:      "bigquery://prod.sales.orders",
		AccessLevel:      "READER",
		Reason:           "quarterly revenue analysis",
	})
	s.Require().NoError(err)
	return req
}

func (s *RequestServiceSuite) TestSubmitApproveMaterializesGrant() {
	ctx := context.Background()
	req := s.submit()
	s.Equal(StatusPending, req.Status)

	decided, err := s.service.Decide(ctx, req.ID, "owner@x.com", domain.RoleDataOwner, DecisionApproved, "looks fine")
	s.Require().NoError(err)
	s.Equal(StatusApproved, decided.Status)
	s.Equal("owner@x.com", decided.DecidedBy)
	s.Require().NotNil(decided.DecidedAt)
	s.Equal("looks fine", decided.DecisionNote)

	g, err := s.grants.inner.Lookup(ctx, "analyst@x.com", "bigquery://prod.sales.orders")
	s.Require().NoError(err)
	s.Equal(domain.AccessLevelReader, g.Level)
	s.Equal("owner@x.com", g.GrantedBy)

	events, err := s.auditStore.ListRecent(ctx, 10)
	s.Require().NoError(err)
	// Newest first: grant added, decision, submission.
	s.Require().Len(events, 3)
	s.Equal(audit.ActionGrantAdded, events[0].Action)
	s.Equal(audit.ActionRequestDecided, events[1].Action)
	s.Equal(audit.ActionRequestSubmitted, events[2].Action)
}

func (s *RequestServiceSuite) TestRejectionLeavesGrantsUntouched() {
	ctx := context.Background()
	req := s.submit()

	decided, err := s.service.Decide(ctx, req.ID, "owner@x.com", domain.RoleDataOwner, DecisionRejected, "")
	s.Require().NoError(err)
	s.Equal(StatusRejected, decided.Status)
	s.Equal("rejected without comment", decided.DecisionNote)

	_, err = s.grants.inner.Lookup(ctx, "analyst@x.com", "bigquery://prod.sales.orders")
	s.True(pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func (s *RequestServiceSuite) TestUnauthorizedRolesCannotDecide() {
	ctx := context.Background()

	for _, role := range []domain.Role{domain.RoleViewer, domain.RoleRequester, domain.RoleDataSteward} {
		req := s.submit()
		_, err := s.service.Decide(ctx, req.ID, "someone@x.com", role, DecisionApproved, "")
		s.True(pkgerrors.Is(err, pkgerrors.CodeForbidden), "role %s", role)

		// The request stays PENDING and no grant appears.
		current, err := s.store.Get(ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(StatusPending, current.Status)
	}
	_, err := s.grants.inner.Lookup(ctx, "analyst@x.com", "bigquery://prod.sales.orders")
	s.True(pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func (s *RequestServiceSuite) TestDecideRequiresApproverSubject() {
	req := s.submit()
	_, err := s.service.Decide(context.Background(), req.ID, "", domain.RoleAdmin, DecisionApproved, "")
	s.True(pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
}

func (s *RequestServiceSuite) TestSecondDecisionConflicts() {
	ctx := context.Background()
	req := s.submit()

	_, err := s.service.Decide(ctx, req.ID, "owner@x.com", domain.RoleDataOwner, DecisionApproved, "")
	s.Require().NoError(err)

	_, err = s.service.Decide(ctx, req.ID, "admin@x.com", domain.RoleAdmin, DecisionRejected, "")
	s.True(pkgerrors.Is(err, pkgerrors.CodeConflict))

	// The first decision stands: status and grant are unchanged.
	current, err := s.store.Get(ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(StatusApproved, current.Status)
	s.Equal("owner@x.com", current.DecidedBy)

	g, err := s.grants.inner.Lookup(ctx, "analyst@x.com", "bigquery://prod.sales.orders")
	s.Require().NoError(err)
	s.Equal("owner@x.com", g.GrantedBy)
}

func (s *RequestServiceSuite) TestDecideUnknownRequestIsNotFound() {
	_, err := s.service.Decide(context.Background(), domain.NewRequestID(), "owner@x.com", domain.RoleDataOwner, DecisionApproved, "")
	s.True(pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func (s *RequestServiceSuite) TestConcurrentDecidesHaveOneWinner() {
	ctx := context.Background()
	req := s.submit()

	const deciders = 8
	var wg sync.WaitGroup
	errs := make([]error, deciders)
	for i := 0; i < deciders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.service.Decide(ctx, req.ID, "owner@x.com", domain.RoleDataOwner, DecisionApproved, "")
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			s.True(pkgerrors.Is(err, pkgerrors.CodeConflict))
		}
	}
	s.Equal(1, winners)
}

func (s *RequestServiceSuite) TestShortReasonRejectedBeforeAnySideEffect() {
	ctx := context.Background()
	_, err := s.service.Submit(ctx, SubmitInput{
		RequesterSubject: "analyst@x.com",
		ResourceRef:      "bigquery://prod.sales.orders",
		AccessLevel:      "READER",
		Reason:           "hi",
	})
	s.True(pkgerrors.Is(err, pkgerrors.CodeValidation))

	reqs, err := s.service.List(ctx, ListFilter{})
	s.Require().NoError(err)
	s.Empty(reqs)

	events, err := s.auditStore.ListRecent(ctx, 10)
	s.Require().NoError(err)
	s.Empty(events)
}

func (s *RequestServiceSuite) TestReasonIsTrimmedBeforeLengthCheck() {
	_, err := s.service.Submit(context.Background(), SubmitInput{
		RequesterSubject: "analyst@x.com",
		ResourceRef:      "bigquery://prod.sales.orders",
		AccessLevel:      "READER",
		Reason:           "   ab   ",
	})
	s.True(pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func (s *RequestServiceSuite) TestApproveNoteDefaults() {
	ctx := context.Background()
	req := s.submit()
	decided, err := s.service.Decide(ctx, req.ID, "owner@x.com", domain.RoleDataOwner, DecisionApproved, "   ")
	s.Require().NoError(err)
	s.Equal("approved without comment", decided.DecisionNote)
}

func (s *RequestServiceSuite) TestPartialFailureThenReconcile() {
	ctx := context.Background()
	req := s.submit()

	s.grants.failNext = true
	_, err := s.service.Decide(ctx, req.ID, "owner@x.com", domain.RoleDataOwner, DecisionApproved, "")
	s.True(pkgerrors.Is(err, pkgerrors.CodePartialFailure))

	// The status transition committed even though the grant write failed.
	current, err := s.store.Get(ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(StatusApproved, current.Status)
	_, err = s.grants.inner.Lookup(ctx, "analyst@x.com", "bigquery://prod.sales.orders")
	s.True(pkgerrors.Is(err, pkgerrors.CodeNotFound))

	g, err := s.service.Reconcile(ctx, req.ID, "admin@x.com")
	s.Require().NoError(err)
	s.Equal("analyst@x.com", g.Subject)
	s.Equal("owner@x.com", g.GrantedBy)

	// Reconcile is idempotent.
	again, err := s.service.Reconcile(ctx, req.ID, "admin@x.com")
	s.Require().NoError(err)
	s.Equal(g.Level, again.Level)
	s.Equal(g.GrantedBy, again.GrantedBy)
}

func (s *RequestServiceSuite) TestReconcilePendingRequestConflicts() {
	req := s.submit()
	_, err := s.service.Reconcile(context.Background(), req.ID, "admin@x.com")
	s.True(pkgerrors.Is(err, pkgerrors.CodeConflict))
}

func (s *RequestServiceSuite) TestListFiltersByStatusAndApprover() {
	ctx := context.Background()
	first := s.submit()
	second := s.submit()

	_, err := s.service.Decide(ctx, first.ID, "owner@x.com", domain.RoleDataOwner, DecisionApproved, "")
	s.Require().NoError(err)

	pending, err := s.service.List(ctx, ListFilter{Status: StatusPending})
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(second.ID, pending[0].ID)

	decidedByOwner, err := s.service.List(ctx, ListFilter{ApproverSubject: "owner@x.com"})
	s.Require().NoError(err)
	s.Require().Len(decidedByOwner, 1)
	s.Equal(first.ID, decidedByOwner[0].ID)
}
