package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"dataportal/pkg/platform/audit"
)

// Store persists audit events in PostgreSQL. The table is append-only; no
// UPDATE or DELETE statements exist in this package.
//
// Schema:
//
//	CREATE TABLE audit_events (
//	    id            UUID PRIMARY KEY,
//	    seq           BIGSERIAL UNIQUE,
//	    ts            TIMESTAMPTZ NOT NULL,
//	    actor_subject TEXT NOT NULL,
//	    action        TEXT NOT NULL,
//	    entity_type   TEXT NOT NULL,
//	    entity_id     TEXT NOT NULL,
//	    detail        JSONB NOT NULL DEFAULT '{}',
//	    request_id    TEXT NOT NULL DEFAULT ''
//	);
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	detail, err := json.Marshal(event.Detail)
	if err != nil {
		return fmt.Errorf("marshal audit detail: %w", err)
	}
	query := `
		INSERT INTO audit_events (id, ts, actor_subject, action, entity_type, entity_id, detail, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.ExecContext(ctx, query,
		event.ID,
		event.Timestamp,
		event.ActorSubject,
		string(event.Action),
		string(event.EntityType),
		event.EntityID,
		detail,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListRecent returns up to limit events, newest first. The seq tiebreaker
// keeps ordering stable for events sharing a timestamp.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT id, ts, actor_subject, action, entity_type, entity_id, detail, request_id
		FROM audit_events
		ORDER BY ts DESC, seq DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event  audit.Event
			action string
			etype  string
			detail []byte
		)
		if err := rows.Scan(&event.ID, &event.Timestamp, &event.ActorSubject, &action, &etype, &event.EntityID, &detail, &event.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Action = audit.Action(action)
		event.EntityType = audit.EntityType(etype)
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &event.Detail); err != nil {
				return nil, fmt.Errorf("unmarshal audit detail: %w", err)
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
