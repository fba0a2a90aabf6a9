package worker

import (
	"context"
	"log/slog"

	"dataportal/pkg/platform/audit"
)

// Sink receives committed audit events, e.g. the Kafka mirror.
type Sink interface {
	Publish(ctx context.Context, event audit.Event) error
}

// Worker consumes audit events from the publisher's mirror channel and
// forwards them to a sink. Sink failures are logged and the worker moves on:
// the durable copy already exists in the audit store.
type Worker struct {
	sink   Sink
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func New(sink Sink, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Publish(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit mirror publish failed",
					"event_id", event.ID,
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}
