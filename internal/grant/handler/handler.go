package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"dataportal/internal/grant"
	pkgerrors "dataportal/pkg/domain-errors"
	"dataportal/pkg/platform/httputil"
	"dataportal/pkg/requestcontext"
)

// Service defines the grant operations exposed over HTTP. Upsert is absent
// on purpose: grants are only ever materialized through the request
// lifecycle, never written directly.
type Service interface {
	Lookup(ctx context.Context, subject, resourceRef string) (grant.Grant, error)
	Revoke(ctx context.Context, subject, resourceRef, actorSubject string) (bool, error)
}

// RevokeRequest is the body of DELETE /grants.
type RevokeRequest struct {
	Subject      string `json:"subject"`
	ResourceRef  string `json:"resource_ref"`
	ActorSubject string `json:"actor_subject"`
}

// GrantResponse is the wire form of a grant.
type GrantResponse struct {
	Subject     string    `json:"subject"`
	ResourceRef string    `json:"resource_ref"`
	Level       string    `json:"level"`
	GrantedBy   string    `json:"granted_by"`
	GrantedAt   time.Time `json:"granted_at"`
}

// Handler wires grant endpoints to the grant service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the grant routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/grants", h.handleLookup)
	r.Delete("/grants", h.handleRevoke)
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject := r.URL.Query().Get("subject")
	resourceRef := r.URL.Query().Get("resource")
	if subject == "" || resourceRef == "" {
		httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeValidation, "subject and resource query parameters are required"))
		return
	}

	g, err := h.service.Lookup(ctx, subject, resourceRef)
	if err != nil {
		if !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "grant lookup failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, GrantResponse{
		Subject:     g.Subject,
		ResourceRef: g.ResourceRef,
		Level:       string(g.Level),
		GrantedBy:   g.GrantedBy,
		GrantedAt:   g.GrantedAt,
	})
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := httputil.Decode[RevokeRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	revoked, err := h.service.Revoke(ctx, body.Subject, body.ResourceRef, body.ActorSubject)
	if err != nil {
		h.logger.WarnContext(ctx, "grant revoke failed",
			"request_id", requestcontext.RequestID(ctx),
			"subject", body.Subject,
			"resource_ref", body.ResourceRef,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"revoked": revoked})
}
