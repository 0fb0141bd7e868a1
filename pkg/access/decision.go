package access

import (
	"strconv"

	"github.com/crewkit/crewkit/pkg/rbac"
)

// DenyReason is the machine-readable reason attached to a denied decision.
type DenyReason string

const (
	// DenyNotAMember means the actor has no membership in the team.
	DenyNotAMember DenyReason = "not_a_member"

	// DenyInsufficientRole means the actor is a member but the permission
	// matrix denies the action for their role.
	DenyInsufficientRole DenyReason = "insufficient_role"
)

// Decision is the outcome of an authorization check. On allow it carries
// the verified team id and role: the only sanctioned source of a tenant id
// for subsequent team-scoped queries.
type Decision struct {
	Allowed  bool          `json:"allowed"`
	Reason   DenyReason    `json:"reason,omitempty"`
	TeamID   int64         `json:"team_id,omitempty"`
	Role     rbac.Role     `json:"role,omitempty"`
	Resource rbac.Resource `json:"resource"`
	Action   rbac.Action   `json:"action"`
}

// TeamRef identifies a team either by its stable numeric id or by its
// human-readable slug.
type TeamRef struct {
	ID   int64
	Slug string
}

// RefByID builds a TeamRef from a stable team id.
func RefByID(id int64) TeamRef { return TeamRef{ID: id} }

// RefBySlug builds a TeamRef from a team slug.
func RefBySlug(slug string) TeamRef { return TeamRef{Slug: slug} }

func (r TeamRef) String() string {
	if r.ID != 0 {
		return strconv.FormatInt(r.ID, 10)
	}
	return r.Slug
}
