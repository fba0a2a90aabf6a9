package audit

import "time"

// Action classifies audit events. One event is emitted per state-changing
// operation; reads are never audited.
type Action string

const (
	ActionRequestSubmitted Action = "REQUEST_SUBMITTED"
	ActionRequestDecided   Action = "REQUEST_DECIDED"
	ActionGrantAdded       Action = "GRANT_ADDED"
	ActionGrantRevoked     Action = "GRANT_REVOKED"
)

// EntityType names the kind of entity an event refers to.
type EntityType string

const (
	EntityAccessRequest EntityType = "access_request"
	EntityGrant         EntityType = "grant"
)

// Event is an immutable audit record emitted from domain logic. Keep it
// transport-agnostic so stores and sinks can fan out. Events are append-only
// and never mutated or deleted.
type Event struct {
	ID           string
	Timestamp    time.Time
	ActorSubject string
	Action       Action
	EntityType   EntityType
	EntityID     string
	// Detail carries event-specific context (resource ref, decision, level).
	// Free-form but small; large payloads belong in the entity stores.
	Detail map[string]string
	// RequestID correlates the event with the HTTP request that caused it.
	RequestID string
}
