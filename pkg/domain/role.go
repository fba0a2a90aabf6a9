package domain

import pkgerrors "dataportal/pkg/domain-errors"

// Role is the coarse-grained role attached to a subject. Roles arrive
// pre-authenticated from the upstream session layer; the core never derives
// them itself.
type Role string

const (
	RoleViewer      Role = "VIEWER"
	RoleRequester   Role = "REQUESTER"
	RoleDataSteward Role = "DATA_STEWARD"
	RoleDataOwner   Role = "DATA_OWNER"
	RoleAdmin       Role = "ADMIN"
)

// ParseRole validates an externally supplied role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleViewer, RoleRequester, RoleDataSteward, RoleDataOwner, RoleAdmin:
		return Role(s), nil
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown role: "+s)
}
