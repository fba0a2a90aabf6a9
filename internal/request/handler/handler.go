package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dataportal/internal/grant"
	"dataportal/internal/request"
	"dataportal/pkg/domain"
	pkgerrors "dataportal/pkg/domain-errors"
	"dataportal/pkg/platform/httputil"
	"dataportal/pkg/requestcontext"
)

// List limits mirror the audit feed: advisory page size, clamped.
const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Service defines the interface for access request lifecycle operations.
type Service interface {
	Submit(ctx context.Context, in request.SubmitInput) (request.AccessRequest, error)
	Decide(ctx context.Context, id domain.RequestID, approverSubject string, approverRole domain.Role, decision request.Decision, note string) (request.AccessRequest, error)
	List(ctx context.Context, filter request.ListFilter) ([]request.AccessRequest, error)
	Reconcile(ctx context.Context, id domain.RequestID, actorSubject string) (grant.Grant, error)
}

// Handler wires access request endpoints to the lifecycle service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs the access request handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the access request routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/access-requests", h.handleSubmit)
	r.Get("/access-requests", h.handleList)
	r.Post("/access-requests/{requestID}/decide", h.handleDecide)
	r.Post("/access-requests/{requestID}/reconcile", h.handleReconcile)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := httputil.Decode[SubmitRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, err := h.service.Submit(ctx, request.SubmitInput{
		RequesterSubject: body.RequesterSubject,
		ResourceRef:      body.ResourceRef,
		AccessLevel:      body.AccessLevel,
		Reason:           body.Reason,
	})
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeValidation) {
			h.logger.WarnContext(ctx, "invalid access request submission",
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
		} else {
			h.logger.ErrorContext(ctx, "failed to submit access request",
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromAccessRequest(req))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := request.ListFilter{
		ApproverSubject: q.Get("approver_subject"),
		Limit:           clampLimit(q.Get("limit")),
	}
	if status := q.Get("status"); status != "" {
		switch request.Status(status) {
		case request.StatusPending, request.StatusApproved, request.StatusRejected:
			filter.Status = request.Status(status)
		default:
			httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeValidation, "unknown status: "+status))
			return
		}
	}

	reqs, err := h.service.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list access requests",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAccessRequests(reqs))
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := domain.RequestID(chi.URLParam(r, "requestID"))

	body, err := httputil.Decode[DecideRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	role, err := domain.ParseRole(body.ApproverRole)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	decision, err := request.ParseDecision(body.Decision)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, err := h.service.Decide(ctx, id, body.ApproverSubject, role, decision, body.Note)
	if err != nil {
		h.logger.WarnContext(ctx, "decide failed",
			"request_id", requestcontext.RequestID(ctx),
			"access_request_id", id,
			"approver", body.ApproverSubject,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "access request decided",
		"request_id", requestcontext.RequestID(ctx),
		"access_request_id", req.ID,
		"decision", body.Decision,
		"approver", body.ApproverSubject,
	)
	httputil.WriteJSON(w, http.StatusOK, FromAccessRequest(req))
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := domain.RequestID(chi.URLParam(r, "requestID"))

	body, err := httputil.Decode[ReconcileRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	g, err := h.service.Reconcile(ctx, id, body.ActorSubject)
	if err != nil {
		h.logger.WarnContext(ctx, "reconcile failed",
			"request_id", requestcontext.RequestID(ctx),
			"access_request_id", id,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"subject":      g.Subject,
		"resource_ref": g.ResourceRef,
		"level":        string(g.Level),
		"granted_by":   g.GrantedBy,
		"granted_at":   g.GrantedAt,
	})
}

func clampLimit(raw string) int {
	limit := defaultListLimit
	if raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit
}
