package handler

import (
	"time"

	"dataportal/internal/request"
)

// AccessRequestResponse is the wire form of an access request.
type AccessRequestResponse struct {
	ID               string     `json:"id"`
	ResourceRef      string     `json:"resource_ref"`
	RequesterSubject string     `json:"requester_subject"`
	AccessLevel      string     `json:"access_level"`
	Reason           string     `json:"reason"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	DecidedBy        string     `json:"decided_by,omitempty"`
	DecidedAt        *time.Time `json:"decided_at,omitempty"`
	DecisionNote     string     `json:"decision_note,omitempty"`
}

// FromAccessRequest converts a domain request to its wire form.
func FromAccessRequest(req request.AccessRequest) AccessRequestResponse {
	return AccessRequestResponse{
		ID:               req.ID.String(),
		ResourceRef:      req.ResourceRef,
		RequesterSubject: req.RequesterSubject,
		AccessLevel:      string(req.AccessLevel),
		Reason:           req.Reason,
		Status:           string(req.Status),
		CreatedAt:        req.CreatedAt,
		DecidedBy:        req.DecidedBy,
		DecidedAt:        req.DecidedAt,
		DecisionNote:     req.DecisionNote,
	}
}

// ListResponse wraps the request list.
type ListResponse struct {
	Items []AccessRequestResponse `json:"items"`
}

// FromAccessRequests converts a slice of domain requests.
func FromAccessRequests(reqs []request.AccessRequest) ListResponse {
	items := make([]AccessRequestResponse, 0, len(reqs))
	for _, r := range reqs {
		items = append(items, FromAccessRequest(r))
	}
	return ListResponse{Items: items}
}
