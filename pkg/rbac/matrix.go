package rbac

import "fmt"

// ConfigurationGapError reports a (role, resource, action) triple that has
// no explicit entry in the matrix. Gaps are a startup-time configuration
// defect and must be treated as fatal; they never silently become an allow
// or deny at runtime.
type ConfigurationGapError struct {
	Role       Role
	Permission Permission
}

func (e *ConfigurationGapError) Error() string {
	return fmt.Sprintf("permission matrix has no entry for role %q on %s", e.Role, e.Permission)
}

// Matrix is the single source of truth mapping (role, resource, action) to
// an allow/deny decision. It is built once at process start and never
// mutated afterwards; construct it explicitly and pass it by reference so
// tests can build isolated matrices.
type Matrix struct {
	allowed map[Role]map[Permission]bool
}

// NewMatrix builds a matrix from explicit per-role entries. The entries are
// copied so later mutation of the input cannot affect the matrix.
func NewMatrix(entries map[Role]map[Permission]bool) *Matrix {
	allowed := make(map[Role]map[Permission]bool, len(entries))
	for role, perms := range entries {
		cp := make(map[Permission]bool, len(perms))
		for perm, allow := range perms {
			cp[perm] = allow
		}
		allowed[role] = cp
	}
	return &Matrix{allowed: allowed}
}

// Allows reports whether the role may perform the action on the resource.
// Any pair without an explicit entry evaluates to false; the matrix never
// falls back to allow.
func (m *Matrix) Allows(role Role, resource Resource, action Action) bool {
	perms, ok := m.allowed[role]
	if !ok {
		return false
	}
	return perms[Permission{Resource: resource, Action: action}]
}

// Validate checks matrix completeness: every (resource, action) pair from
// ResourceActions must have an explicit entry (true or false) for every
// defined role. A gap is returned as a ConfigurationGapError and should
// fail startup.
func (m *Matrix) Validate() error {
	for _, role := range Roles() {
		perms, ok := m.allowed[role]
		if !ok {
			perms = map[Permission]bool{}
		}
		for resource, actions := range ResourceActions() {
			for _, action := range actions {
				p := Permission{Resource: resource, Action: action}
				if _, present := perms[p]; !present {
					return &ConfigurationGapError{Role: role, Permission: p}
				}
			}
		}
	}
	return nil
}

// DefaultMatrix returns the built-in permission matrix. Every entry is
// explicit, including the denied ones, so gaps stay auditable. Owner is a
// superset of admin because each pair was enumerated for it, not because
// of role-ordering math.
func DefaultMatrix() *Matrix {
	return NewMatrix(map[Role]map[Permission]bool{
		RoleOwner: {
			// Team creation and invitation acceptance happen before the
			// actor holds a membership; their routes are gated by the
			// session or token, the entries keep the vocabulary closed.
			{ResourceTeamSettings, ActionCreate}: true,
			{ResourceTeamSettings, ActionRead}:   true,
			{ResourceTeamSettings, ActionUpdate}: true,
			{ResourceTeamSettings, ActionDelete}: true,
			{ResourceMembers, ActionRead}:        true,
			{ResourceMembers, ActionUpdateRole}:  true,
			{ResourceMembers, ActionRemove}:      true,
			{ResourceMembers, ActionLeave}:       true,
			{ResourceInvitations, ActionCreate}:  true,
			{ResourceInvitations, ActionRead}:    true,
			{ResourceInvitations, ActionAccept}:  true,
			{ResourceInvitations, ActionDelete}:  true,
			{ResourceAPIKeys, ActionCreate}:      true,
			{ResourceAPIKeys, ActionRead}:        true,
			{ResourceAPIKeys, ActionDelete}:      true,
			{ResourceWebhooks, ActionCreate}:     true,
			{ResourceWebhooks, ActionRead}:       true,
			{ResourceWebhooks, ActionUpdate}:     true,
			{ResourceWebhooks, ActionDelete}:     true,
			{ResourceBilling, ActionRead}:        true,
			{ResourceBilling, ActionUpdate}:      true,
			{ResourceAuditLogs, ActionRead}:      true,
		},
		RoleAdmin: {
			{ResourceTeamSettings, ActionCreate}: true,
			{ResourceTeamSettings, ActionRead}:   true,
			{ResourceTeamSettings, ActionUpdate}: true,
			{ResourceTeamSettings, ActionDelete}: false, // team deletion is owner-only
			{ResourceMembers, ActionRead}:        true,
			{ResourceMembers, ActionUpdateRole}:  true,
			{ResourceMembers, ActionRemove}:      true,
			{ResourceMembers, ActionLeave}:       true,
			{ResourceInvitations, ActionCreate}:  true,
			{ResourceInvitations, ActionRead}:    true,
			{ResourceInvitations, ActionAccept}:  true,
			{ResourceInvitations, ActionDelete}:  true,
			{ResourceAPIKeys, ActionCreate}:      true,
			{ResourceAPIKeys, ActionRead}:        true,
			{ResourceAPIKeys, ActionDelete}:      true,
			{ResourceWebhooks, ActionCreate}:     true,
			{ResourceWebhooks, ActionRead}:       true,
			{ResourceWebhooks, ActionUpdate}:     true,
			{ResourceWebhooks, ActionDelete}:     true,
			{ResourceBilling, ActionRead}:        true,
			{ResourceBilling, ActionUpdate}:      false, // plan changes are owner-only
			{ResourceAuditLogs, ActionRead}:      true,
		},
		RoleMember: {
			{ResourceTeamSettings, ActionCreate}: true,
			{ResourceTeamSettings, ActionRead}:   true,
			{ResourceTeamSettings, ActionUpdate}: false,
			{ResourceTeamSettings, ActionDelete}: false,
			{ResourceMembers, ActionRead}:        true,
			{ResourceMembers, ActionUpdateRole}:  false,
			{ResourceMembers, ActionRemove}:      false,
			{ResourceMembers, ActionLeave}:       true,
			{ResourceInvitations, ActionCreate}:  false,
			{ResourceInvitations, ActionRead}:    false,
			{ResourceInvitations, ActionAccept}:  true,
			{ResourceInvitations, ActionDelete}:  false,
			{ResourceAPIKeys, ActionCreate}:      false,
			{ResourceAPIKeys, ActionRead}:        true,
			{ResourceAPIKeys, ActionDelete}:      false,
			{ResourceWebhooks, ActionCreate}:     false,
			{ResourceWebhooks, ActionRead}:       true,
			{ResourceWebhooks, ActionUpdate}:     false,
			{ResourceWebhooks, ActionDelete}:     false,
			{ResourceBilling, ActionRead}:        true,
			{ResourceBilling, ActionUpdate}:      false,
			{ResourceAuditLogs, ActionRead}:      false,
		},
	})
}
