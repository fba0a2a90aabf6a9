package domain

import "github.com/google/uuid"

// RequestID identifies an access request. IDs are generated at submission
// and never reused.
type RequestID string

// NewRequestID returns a fresh unique request identifier.
func NewRequestID() RequestID {
	return RequestID(uuid.NewString())
}

func (id RequestID) String() string { return string(id) }
