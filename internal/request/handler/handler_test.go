package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataportal/internal/grant"
	"dataportal/internal/request"
	"dataportal/pkg/domain"
	pkgerrors "dataportal/pkg/domain-errors"
)

// stubService scripts the lifecycle service per test.
type stubService struct {
	submit    func(request.SubmitInput) (request.AccessRequest, error)
	decide    func(domain.RequestID, string, domain.Role, request.Decision, string) (request.AccessRequest, error)
	list      func(request.ListFilter) ([]request.AccessRequest, error)
	reconcile func(domain.RequestID, string) (grant.Grant, error)
}

func (s *stubService) Submit(_ context.Context, in request.SubmitInput) (request.AccessRequest, error) {
	return s.submit(in)
}

func (s *stubService) Decide(_ context.Context, id domain.RequestID, approver string, role domain.Role, decision request.Decision, note string) (request.AccessRequest, error) {
	return s.decide(id, approver, role, decision, note)
}

func (s *stubService) List(_ context.Context, filter request.ListFilter) ([]request.AccessRequest, error) {
	return s.list(filter)
}

func (s *stubService) Reconcile(_ context.Context, id domain.RequestID, actor string) (grant.Grant, error) {
	return s.reconcile(id, actor)
}

func newServer(t *testing.T, service *stubService) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	New(service, logger).Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestSubmitCreated(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	service := &stubService{
		submit: func(in request.SubmitInput) (request.AccessRequest, error) {
			assert.Equal(t, "analyst@x.com", in.RequesterSubject)
			return request.AccessRequest{
				ID:               "req-1",
				ResourceRef:      in.ResourceRef,
				RequesterSubject: in.RequesterSubject,
				AccessLevel:      domain.AccessLevelReader,
				Reason:           in.Reason,
				Status:           request.StatusPending,
				CreatedAt:        now,
			}, nil
		},
	}
	srv := newServer(t, service)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/access-requests", `{
		"requester_subject": "analyst@x.com",
		"resource_ref": "bigquery://prod.sales.orders",
		"access_level": "READER",
		"reason": "quarterly analysis"
	}`)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "req-1", body["id"])
	assert.Equal(t, "PENDING", body["status"])
}

func TestSubmitValidationError(t *testing.T) {
	service := &stubService{
		submit: func(request.SubmitInput) (request.AccessRequest, error) {
			return request.AccessRequest{}, pkgerrors.New(pkgerrors.CodeValidation, "reason must be at least 5 characters")
		},
	}
	srv := newServer(t, service)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/access-requests", `{"reason": "hi"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_error", body["error"])
	assert.Contains(t, body["error_description"], "reason")
}

func TestDecideStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", pkgerrors.New(pkgerrors.CodeNotFound, "access request not found"), http.StatusNotFound},
		{"already decided", pkgerrors.New(pkgerrors.CodeConflict, "request is APPROVED, already decided"), http.StatusConflict},
		{"role cannot decide", pkgerrors.New(pkgerrors.CodeForbidden, "role DATA_STEWARD cannot decide access requests"), http.StatusForbidden},
		{"missing approver", pkgerrors.New(pkgerrors.CodeUnauthorized, "decide must name an approver subject"), http.StatusUnauthorized},
		{"grant write failed", pkgerrors.New(pkgerrors.CodePartialFailure, "request approved but grant not materialized"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := &stubService{
				decide: func(domain.RequestID, string, domain.Role, request.Decision, string) (request.AccessRequest, error) {
					return request.AccessRequest{}, tc.err
				},
			}
			srv := newServer(t, service)

			resp, body := doJSON(t, http.MethodPost, srv.URL+"/access-requests/req-1/decide", `{
				"approver_subject": "owner@x.com",
				"approver_role": "DATA_OWNER",
				"decision": "APPROVED"
			}`)
			assert.Equal(t, tc.want, resp.StatusCode)
			assert.Equal(t, string(pkgerrors.CodeOf(tc.err)), body["error"])
		})
	}
}

func TestDecideSuccess(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	service := &stubService{
		decide: func(id domain.RequestID, approver string, role domain.Role, decision request.Decision, note string) (request.AccessRequest, error) {
			assert.Equal(t, domain.RequestID("req-1"), id)
			assert.Equal(t, domain.RoleAdmin, role)
			assert.Equal(t, request.DecisionRejected, decision)
			return request.AccessRequest{
				ID:        id,
				Status:    request.StatusRejected,
				DecidedBy: approver,
				DecidedAt: &now,
			}, nil
		},
	}
	srv := newServer(t, service)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/access-requests/req-1/decide", `{
		"approver_subject": "admin@x.com",
		"approver_role": "ADMIN",
		"decision": "REJECTED",
		"note": "not justified"
	}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "REJECTED", body["status"])
	assert.Equal(t, "admin@x.com", body["decided_by"])
}

func TestDecideUnknownRoleIsBadRequest(t *testing.T) {
	srv := newServer(t, &stubService{})

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/access-requests/req-1/decide", `{
		"approver_subject": "owner@x.com",
		"approver_role": "SUPERVISOR",
		"decision": "APPROVED"
	}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_error", body["error"])
}

func TestDecideUnknownDecisionIsBadRequest(t *testing.T) {
	srv := newServer(t, &stubService{})

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/access-requests/req-1/decide", `{
		"approver_subject": "owner@x.com",
		"approver_role": "ADMIN",
		"decision": "MAYBE"
	}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListClampsLimitAndValidatesStatus(t *testing.T) {
	var seen request.ListFilter
	service := &stubService{
		list: func(filter request.ListFilter) ([]request.AccessRequest, error) {
			seen = filter
			return nil, nil
		},
	}
	srv := newServer(t, service)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/access-requests?status=PENDING&limit=9999", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, request.StatusPending, seen.Status)
	assert.Equal(t, 500, seen.Limit)
	assert.Empty(t, body["items"])

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/access-requests", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 50, seen.Limit)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/access-requests?status=SHIPPED", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_error", body["error"])
}

func TestReconcileReturnsGrant(t *testing.T) {
	now := time.Date(2026, 4, 1, 11, 0, 0, 0, time.UTC)
	service := &stubService{
		reconcile: func(id domain.RequestID, actor string) (grant.Grant, error) {
			assert.Equal(t, domain.RequestID("req-1"), id)
			assert.Equal(t, "admin@x.com", actor)
			return grant.Grant{
				Subject:     "analyst@x.com",
				ResourceRef: "bigquery://prod.sales.orders",
				Level:       domain.AccessLevelReader,
				GrantedBy:   "owner@x.com",
				GrantedAt:   now,
			}, nil
		},
	}
	srv := newServer(t, service)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/access-requests/req-1/reconcile", `{"actor_subject": "admin@x.com"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "analyst@x.com", body["subject"])
	assert.Equal(t, "READER", body["level"])
}
