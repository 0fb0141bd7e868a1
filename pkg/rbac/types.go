package rbac

// Resource represents a category of team-scoped data subject to access control
type Resource string

const (
	ResourceTeamSettings Resource = "team_settings"
	ResourceMembers      Resource = "members"
	ResourceInvitations  Resource = "invitations"
	ResourceAPIKeys      Resource = "api_keys"
	ResourceWebhooks     Resource = "webhooks"
	ResourceBilling      Resource = "billing"
	ResourceAuditLogs    Resource = "audit_logs"
)

// Action represents an operation that can be performed on a resource
type Action string

const (
	ActionCreate     Action = "create"
	ActionRead       Action = "read"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionUpdateRole Action = "update_role"
	ActionRemove     Action = "remove"
	ActionLeave      Action = "leave"
	ActionAccept     Action = "accept"
)

// Permission represents a specific permission (resource + action)
type Permission struct {
	Resource Resource `json:"resource"`
	Action   Action   `json:"action"`
}

// String returns a string representation of the permission
func (p Permission) String() string {
	return string(p.Resource) + ":" + string(p.Action)
}

// ResourceActions returns the closed set of actions defined for each
// resource. The matrix completeness check validates against this set, every
// pair listed here must have an explicit entry for every role, and audit
// events must only use pairs from this set so audit rows stay queryable.
func ResourceActions() map[Resource][]Action {
	return map[Resource][]Action{
		ResourceTeamSettings: {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
		ResourceMembers:      {ActionRead, ActionUpdateRole, ActionRemove, ActionLeave},
		ResourceInvitations:  {ActionCreate, ActionRead, ActionAccept, ActionDelete},
		ResourceAPIKeys:      {ActionCreate, ActionRead, ActionDelete},
		ResourceWebhooks:     {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
		ResourceBilling:      {ActionRead, ActionUpdate},
		ResourceAuditLogs:    {ActionRead},
	}
}
