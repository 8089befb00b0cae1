package domain

import "fmt"

// Role is the closed set of global user roles. Roles are an independent axis
// from association-scoped membership roles; elevation and demotion touch only
// this one.
type Role string

const (
	RoleGuest       Role = "guest"
	RoleMember      Role = "member"
	RoleManager     Role = "manager"
	RoleAdmin       Role = "admin"
	RoleSystemAdmin Role = "system_admin"
	RoleSuperAdmin  Role = "super_admin"
)

// ParseRole validates a stored or submitted role string against the closed
// set. Unknown values are rejected rather than treated as guest.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleGuest, RoleMember, RoleManager, RoleAdmin, RoleSystemAdmin, RoleSuperAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("domain: unknown role %q", s)
	}
}

// rank orders roles for privilege comparisons. Exhaustive over the closed set.
func (r Role) rank() int {
	switch r {
	case RoleGuest:
		return 0
	case RoleMember:
		return 1
	case RoleManager:
		return 2
	case RoleAdmin:
		return 3
	case RoleSystemAdmin:
		return 4
	case RoleSuperAdmin:
		return 5
	default:
		return -1
	}
}

// AtLeast reports whether r carries at least the privilege of other. Unknown
// roles never satisfy any requirement.
func (r Role) AtLeast(other Role) bool {
	rr := r.rank()
	return rr >= 0 && rr >= other.rank()
}

func (r Role) String() string { return string(r) }

// MembershipRole is the association-scoped role on a membership row.
type MembershipRole string

const (
	MembershipRoleMember  MembershipRole = "member"
	MembershipRoleManager MembershipRole = "manager"
	MembershipRoleAdmin   MembershipRole = "admin"
	MembershipRoleOwner   MembershipRole = "owner"
)

// ParseMembershipRole validates an association-scoped role string.
func ParseMembershipRole(s string) (MembershipRole, error) {
	switch MembershipRole(s) {
	case MembershipRoleMember, MembershipRoleManager, MembershipRoleAdmin, MembershipRoleOwner:
		return MembershipRole(s), nil
	default:
		return "", fmt.Errorf("domain: unknown membership role %q", s)
	}
}

func (r MembershipRole) String() string { return string(r) }
