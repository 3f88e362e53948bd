package enums

import "fmt"

// ActorRole identifies the authority level of a pricing actor.
type ActorRole string

const (
	ActorRoleHQAdmin       ActorRole = "hq_admin"
	ActorRoleBranchManager ActorRole = "branch_manager"
	ActorRoleClerk         ActorRole = "clerk"
)

var validActorRoles = []ActorRole{
	ActorRoleHQAdmin,
	ActorRoleBranchManager,
	ActorRoleClerk,
}

// String implements fmt.Stringer.
func (r ActorRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ActorRole.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
