package teams

import (
	"errors"
	"time"

	"github.com/crewkit/crewkit/pkg/rbac"
)

// Sentinel errors for expected outcomes. Callers distinguish these with
// errors.Is; anything else is a storage failure.
var (
	ErrTeamNotFound       = errors.New("team not found")
	ErrInvalidSlug        = errors.New("invalid team slug")
	ErrSlugTaken          = errors.New("team slug already taken")
	ErrMemberNotFound     = errors.New("member not found")
	ErrMemberExists       = errors.New("member already exists")
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrInvitationExpired  = errors.New("invitation expired")
	ErrInvitationAccepted = errors.New("invitation already accepted")
	ErrLastOwner          = errors.New("team must retain at least one owner")
)

// Team is the tenant isolation boundary. Every team-scoped row carries its
// id, stamped once at creation and never changed.
type Team struct {
	ID        int64           `json:"id"`
	Slug      string          `json:"slug"`
	Name      string          `json:"name"`
	Features  map[string]bool `json:"features,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Membership binds an actor to a team with exactly one role. The
// (team_id, user_id) pair is unique, enforced by a DB constraint.
type Membership struct {
	ID        int64     `json:"id"`
	TeamID    int64     `json:"team_id"`
	UserID    int64     `json:"user_id"`
	Role      rbac.Role `json:"role"`
	InvitedBy *int64    `json:"invited_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Invitation represents a pending invitation to join a team.
type Invitation struct {
	ID         int64      `json:"id"`
	TeamID     int64      `json:"team_id"`
	Email      string     `json:"email"`
	Role       rbac.Role  `json:"role"`
	Token      string     `json:"token,omitempty"`
	InvitedBy  int64      `json:"invited_by"`
	InvitedAt  time.Time  `json:"invited_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	AcceptedBy *int64     `json:"accepted_by,omitempty"`
}

// CreateTeamRequest represents a request to create a team.
type CreateTeamRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// UpdateTeamRequest represents a request to update team settings.
type UpdateTeamRequest struct {
	Name     *string         `json:"name,omitempty"`
	Features map[string]bool `json:"features,omitempty"`
}

// InviteMemberRequest represents a request to invite a member.
type InviteMemberRequest struct {
	Email string    `json:"email"`
	Role  rbac.Role `json:"role"`
}

// UpdateMemberRequest represents a request to change a member's role.
type UpdateMemberRequest struct {
	Role rbac.Role `json:"role"`
}

// MembershipInvalidator is notified synchronously after any mutation that
// changes or removes a membership, so cached authorization state never
// outlives the row it was derived from.
type MembershipInvalidator interface {
	InvalidateMembership(teamID, userID int64)
}
