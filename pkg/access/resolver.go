package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/crewkit/crewkit/pkg/rbac"
	"github.com/crewkit/crewkit/pkg/teams"
)

// Sentinel errors for the resolution steps.
var (
	// ErrTeamNotFound means the team reference does not resolve to any
	// existing team. Distinct from "actor not a member of an existing
	// team", which is a normal deny outcome, not an error.
	ErrTeamNotFound = errors.New("team not found")

	// ErrNotAMember is returned by membership resolvers when the actor has
	// no membership in the team. Callers must handle it as an expected
	// outcome.
	ErrNotAMember = errors.New("not a member")

	// ErrNoActor means the caller passed an empty actor id. Authentication
	// is the route layer's job; reaching the decision function without an
	// actor is a programming error.
	ErrNoActor = errors.New("missing actor id")
)

// TeamDirectory resolves team references against the team store.
// *teams.PostgresService satisfies this.
type TeamDirectory interface {
	GetTeam(ctx context.Context, id int64) (*teams.Team, error)
	GetTeamBySlug(ctx context.Context, slug string) (*teams.Team, error)
}

// MembershipResolver finds the actor's current role in a team.
// Implementations must be pure reads: no implicit membership creation.
type MembershipResolver interface {
	// Resolve returns the actor's role in the team, or ErrNotAMember.
	Resolve(ctx context.Context, userID, teamID int64) (rbac.Role, error)
}

// PostgresResolver resolves memberships with a single indexed point lookup
// against the membership store.
type PostgresResolver struct {
	members MembershipSource
}

// MembershipSource is the slice of the team service the resolver needs.
type MembershipSource interface {
	GetMember(ctx context.Context, teamID, userID int64) (*teams.Membership, error)
}

// NewPostgresResolver creates a resolver backed by the membership store.
func NewPostgresResolver(members MembershipSource) *PostgresResolver {
	return &PostgresResolver{members: members}
}

// Resolve looks up the actor's membership. "Not a member" maps to
// ErrNotAMember; an invalid stored role is a data corruption error.
func (r *PostgresResolver) Resolve(ctx context.Context, userID, teamID int64) (rbac.Role, error) {
	member, err := r.members.GetMember(ctx, teamID, userID)
	if errors.Is(err, teams.ErrMemberNotFound) {
		return "", ErrNotAMember
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve membership: %w", err)
	}
	if !member.Role.Valid() {
		return "", fmt.Errorf("membership (team=%d, user=%d) has invalid role %q", teamID, userID, member.Role)
	}
	return member.Role, nil
}
