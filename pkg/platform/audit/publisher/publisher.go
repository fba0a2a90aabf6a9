// Package publisher provides the fail-closed audit publisher.
//
// Emit is synchronous: the caller blocks until the store write succeeds. If
// the write fails, an error is returned and the calling operation MUST fail
// — a state change whose audit event cannot be persisted is not committed.
package publisher

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"dataportal/internal/platform/metrics"
	"dataportal/pkg/platform/audit"
	"dataportal/pkg/requestcontext"
)

// Publisher appends audit events to the durable store and optionally feeds
// a mirror channel for downstream sinks. The mirror is best-effort; the
// store write is the source of truth.
type Publisher struct {
	store   audit.Store
	mirror  chan<- audit.Event
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithMirror attaches a mirror channel consumed by a background worker
// (e.g. the Kafka sink). Sends never block: if the mirror is saturated the
// event is dropped from the mirror only, never from the store.
func WithMirror(mirror chan<- audit.Event) Option {
	return func(p *Publisher) { p.mirror = mirror }
}

// WithLogger sets a logger for mirror overflow reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// WithMetrics counts successfully appended events.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

// New creates a publisher over the given durable store.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit persists one audit event. Zero timestamps are filled from the
// request-scoped clock; IDs are generated when absent.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	if p.metrics != nil {
		p.metrics.AuditEvents.Inc()
	}
	if p.mirror != nil {
		select {
		case p.mirror <- event:
		default:
			if p.logger != nil {
				p.logger.WarnContext(ctx, "audit mirror saturated, event not mirrored",
					"event_id", event.ID,
					"action", event.Action,
				)
			}
		}
	}
	return nil
}

// ListRecent exposes the store's read side for the audit feed endpoint.
func (p *Publisher) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	return p.store.ListRecent(ctx, limit)
}
