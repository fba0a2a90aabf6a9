package grant

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"dataportal/pkg/domain"
	pkgerrors "dataportal/pkg/domain-errors"
	"dataportal/pkg/platform/audit"
)

// recordingAuditor captures emitted events so tests can assert on the
// audit contract without a real store.
type recordingAuditor struct {
	events []audit.Event
	fail   bool
}

func (a *recordingAuditor) Emit(_ context.Context, event audit.Event) error {
	if a.fail {
		return pkgerrors.New(pkgerrors.CodeInternal, "audit store down")
	}
	a.events = append(a.events, event)
	return nil
}

type GrantServiceSuite struct {
	suite.Suite
	store   *InMemoryStore
	auditor *recordingAuditor
	service *Service
}

func TestGrantServiceSuite(t *testing.T) {
	suite.Run(t, new(GrantServiceSuite))
}

func (s *GrantServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.auditor = &recordingAuditor{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = NewService(s.store, s.auditor, nil, logger)
}

func (s *GrantServiceSuite) TestUpsertReplacesExistingGrant() {
	ctx := context.Background()

	_, err := s.service.Upsert(ctx, "a@x.com", "res:sales", domain.AccessLevelReader, "owner@x.com")
	s.Require().NoError(err)

	g, err := s.service.Upsert(ctx, "a@x.com", "res:sales", domain.AccessLevelWriter, "admin@x.com")
	s.Require().NoError(err)
	s.Equal(domain.AccessLevelWriter, g.Level)

	found, err := s.service.Lookup(ctx, "a@x.com", "res:sales")
	s.Require().NoError(err)
	s.Equal(domain.AccessLevelWriter, found.Level)
	s.Equal("admin@x.com", found.GrantedBy)

	s.Len(s.auditor.events, 2)
	s.Equal(audit.ActionGrantAdded, s.auditor.events[1].Action)
}

func (s *GrantServiceSuite) TestUpsertRequiresIdentifiers() {
	ctx := context.Background()
	_, err := s.service.Upsert(ctx, "", "res:sales", domain.AccessLevelReader, "owner@x.com")
	s.True(pkgerrors.Is(err, pkgerrors.CodeValidation))
	s.Empty(s.auditor.events)
}

func (s *GrantServiceSuite) TestRevokeIsIdempotent() {
	ctx := context.Background()
	_, err := s.service.Upsert(ctx, "a@x.com", "res:sales", domain.AccessLevelReader, "owner@x.com")
	s.Require().NoError(err)

	revoked, err := s.service.Revoke(ctx, "a@x.com", "res:sales", "admin@x.com")
	s.Require().NoError(err)
	s.True(revoked)

	// Second revoke: safe, returns false, emits no audit event.
	before := len(s.auditor.events)
	revoked, err = s.service.Revoke(ctx, "a@x.com", "res:sales", "admin@x.com")
	s.Require().NoError(err)
	s.False(revoked)
	s.Len(s.auditor.events, before)
}

func (s *GrantServiceSuite) TestRevokeRequiresActor() {
	ctx := context.Background()
	_, err := s.service.Revoke(ctx, "a@x.com", "res:sales", "")
	s.True(pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
}

func (s *GrantServiceSuite) TestLookupAbsentIsNotFound() {
	ctx := context.Background()
	_, err := s.service.Lookup(ctx, "nobody@x.com", "res:sales")
	s.True(pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func (s *GrantServiceSuite) TestUpsertFailsClosedWhenAuditFails() {
	ctx := context.Background()
	s.auditor.fail = true
	_, err := s.service.Upsert(ctx, "a@x.com", "res:sales", domain.AccessLevelReader, "owner@x.com")
	s.Error(err)
}
