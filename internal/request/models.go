package request

import (
	"time"

	"dataportal/pkg/domain"
	pkgerrors "dataportal/pkg/domain-errors"
)

// Status is the lifecycle state of an access request. PENDING is the only
// initial state; APPROVED and REJECTED are terminal with no outgoing
// transitions. Every grant derivation and audit guarantee depends on the
// status transitioning exactly once away from PENDING.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Decision is an approver's verdict on a pending request.
type Decision string

const (
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

// ParseDecision validates an externally supplied decision string.
func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionApproved, DecisionRejected:
		return Decision(s), nil
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "decision must be APPROVED or REJECTED")
}

// Default decision notes applied when an approver leaves the note blank.
const (
	defaultApproveNote = "approved without comment"
	defaultRejectNote  = "rejected without comment"
)

// AccessRequest is the lifecycle entity owned by the request service.
// DecidedBy and DecidedAt are set exactly when the status leaves PENDING and
// never change afterwards.
type AccessRequest struct {
	ID               domain.RequestID
	ResourceRef      string
	RequesterSubject string
	AccessLevel      domain.AccessLevel
	Reason           string
	Status           Status
	CreatedAt        time.Time
	DecidedBy        string
	DecidedAt        *time.Time
	DecisionNote     string
}

// Terminal reports whether the request has been decided.
func (r AccessRequest) Terminal() bool {
	return r.Status != StatusPending
}

// ListFilter narrows List results. Zero values mean "no filter". Limit is a
// caller-supplied page size advisory; stores clamp it to their own maximum.
type ListFilter struct {
	Status          Status
	ApproverSubject string
	Limit           int
}
