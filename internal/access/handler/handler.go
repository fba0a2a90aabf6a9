package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dataportal/internal/access"
	"dataportal/pkg/domain"
	pkgerrors "dataportal/pkg/domain-errors"
	"dataportal/pkg/platform/httputil"
	"dataportal/pkg/requestcontext"
)

// Resolver defines the access check operation.
type Resolver interface {
	CanAccess(ctx context.Context, subject string, role domain.Role, resourceRef string) (access.CheckResult, error)
}

// CheckResponse is the wire form of an access check result.
type CheckResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// Handler wires the access check endpoint to the policy resolver.
type Handler struct {
	resolver Resolver
	logger   *slog.Logger
}

func New(resolver Resolver, logger *slog.Logger) *Handler {
	return &Handler{resolver: resolver, logger: logger}
}

// Register mounts the access check route.
func (h *Handler) Register(r chi.Router) {
	r.Get("/access-check", h.handleCheck)
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	subject := q.Get("subject")
	resourceRef := q.Get("resource")
	role, err := domain.ParseRole(q.Get("role"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.resolver.CanAccess(ctx, subject, role, resourceRef)
	if err != nil {
		if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
			h.logger.ErrorContext(ctx, "access check failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CheckResponse{
		Allowed: result.Allowed,
		Reason:  string(result.Reason),
	})
}
