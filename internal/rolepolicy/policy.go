// Package rolepolicy is the single capability table for role-based checks.
// Every eligibility decision in the system routes through it; no other
// package compares role strings directly.
package rolepolicy

import "dataportal/pkg/domain"

// Capabilities enumerates what a role may do. The table is static: roles are
// immutable per subject for the duration of a session and supplied
// externally.
type Capabilities struct {
	CanSubmitRequest     bool
	CanDecide            bool
	CanViewApprovalQueue bool
	// CanViewAudit is held by ADMIN alone; owners and stewards see the
	// approval queue, not the raw audit feed.
	CanViewAudit bool
	// BypassesGrantCheck marks privileged roles whose access checks skip the
	// per-resource grant lookup entirely.
	BypassesGrantCheck bool
}

var table = map[domain.Role]Capabilities{
	domain.RoleViewer: {
		CanSubmitRequest: true,
	},
	domain.RoleRequester: {
		CanSubmitRequest: true,
	},
	domain.RoleDataSteward: {
		CanSubmitRequest:     true,
		CanViewApprovalQueue: true,
		BypassesGrantCheck:   true,
	},
	domain.RoleDataOwner: {
		CanSubmitRequest:     true,
		CanDecide:            true,
		CanViewApprovalQueue: true,
		BypassesGrantCheck:   true,
	},
	domain.RoleAdmin: {
		CanSubmitRequest:     true,
		CanDecide:            true,
		CanViewApprovalQueue: true,
		CanViewAudit:         true,
		BypassesGrantCheck:   true,
	},
}

// For returns the capability set for a role. Unknown roles hold no
// capabilities.
func For(role domain.Role) Capabilities {
	return table[role]
}

// CanDecide reports whether the role may decide access requests.
// DATA_STEWARD may view the approval queue but never decide.
func CanDecide(role domain.Role) bool {
	return table[role].CanDecide
}

// BypassesGrantCheck reports whether the role is privileged enough to skip
// per-resource grant lookups.
func BypassesGrantCheck(role domain.Role) bool {
	return table[role].BypassesGrantCheck
}
