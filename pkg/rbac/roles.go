package rbac

import "fmt"

// Role represents a member's role within a team.
// The set is closed and strictly ordered: owner > admin > member.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// roleRanks defines the total ordering between roles. Higher rank outranks
// lower. The ordering exists for display and ergonomic checks only;
// authorization decisions are table-driven through the Matrix so a new
// action is never granted to a higher role by ordering alone.
var roleRanks = map[Role]int{
	RoleMember: 1,
	RoleAdmin:  2,
	RoleOwner:  3,
}

// Roles returns all defined roles in descending order of rank.
func Roles() []Role {
	return []Role{RoleOwner, RoleAdmin, RoleMember}
}

// ParseRole validates a raw role string and returns the typed Role.
// Unknown values are a construction-time error, not a runtime branch.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleRanks[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Valid reports whether the role is one of the defined roles.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank returns the role's position in the ordering. Unknown roles rank
// below every defined role.
func (r Role) Rank() int {
	return roleRanks[r]
}

// AtLeast reports whether the role outranks or equals the threshold.
// Pure comparison, no side effects.
func (r Role) AtLeast(threshold Role) bool {
	return roleRanks[r] >= roleRanks[threshold]
}
