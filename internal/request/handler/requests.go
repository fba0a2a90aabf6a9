package handler

// SubmitRequest is the body of POST /access-requests.
type SubmitRequest struct {
	ResourceRef      string `json:"resource_ref"`
	RequesterSubject string `json:"requester_subject"`
	AccessLevel      string `json:"access_level"`
	Reason           string `json:"reason"`
}

// DecideRequest is the body of POST /access-requests/{id}/decide. The actor
// is always carried explicitly; the core never infers an ambient identity.
type DecideRequest struct {
	ApproverSubject string `json:"approver_subject"`
	ApproverRole    string `json:"approver_role"`
	Decision        string `json:"decision"`
	Note            string `json:"note,omitempty"`
}

// ReconcileRequest is the body of POST /access-requests/{id}/reconcile.
type ReconcileRequest struct {
	ActorSubject string `json:"actor_subject"`
}
