package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"dataportal/pkg/platform/audit"
	"dataportal/pkg/platform/httputil"
	"dataportal/pkg/requestcontext"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Feed defines the audit read side exposed over HTTP.
type Feed interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

// EventResponse is the wire form of one audit event.
type EventResponse struct {
	ID           string            `json:"id"`
	Timestamp    time.Time         `json:"ts"`
	ActorSubject string            `json:"actor_subject"`
	Action       string            `json:"action"`
	EntityType   string            `json:"entity_type"`
	EntityID     string            `json:"entity_id"`
	Detail       map[string]string `json:"detail,omitempty"`
}

// Handler wires the audit feed endpoint to the audit store's read side.
type Handler struct {
	feed   Feed
	logger *slog.Logger
}

func New(feed Feed, logger *slog.Logger) *Handler {
	return &Handler{feed: feed, logger: logger}
}

// Register mounts the audit feed route.
func (h *Handler) Register(r chi.Router) {
	r.Get("/audit", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	events, err := h.feed.ListRecent(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	items := make([]EventResponse, 0, len(events))
	for _, e := range events {
		items = append(items, EventResponse{
			ID:           e.ID,
			Timestamp:    e.Timestamp,
			ActorSubject: e.ActorSubject,
			Action:       string(e.Action),
			EntityType:   string(e.EntityType),
			EntityID:     e.EntityID,
			Detail:       e.Detail,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": len(items),
	})
}
