package access

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/crewkit/crewkit/pkg/rbac"
	"github.com/crewkit/crewkit/pkg/teams"
)

const slugCacheSize = 4096

// Decider is the single sanctioned path every protected operation takes
// before doing team-scoped work. It binds tenant resolution, membership
// lookup and the matrix check into one call so callers can never use an
// unverified tenant id from client input.
type Decider struct {
	directory TeamDirectory
	resolver  MembershipResolver
	matrix    *rbac.Matrix
	metrics   *Metrics
	tracer    trace.Tracer

	// slugCache maps slug -> team id. Ids are stable, and the team row is
	// re-fetched on every decision, so a stale entry can only cause one
	// extra miss, never a wrong grant.
	slugCache *lru.Cache[string, int64]
}

// NewDecider creates a Decider. The matrix must already be validated;
// metrics may be nil.
func NewDecider(directory TeamDirectory, resolver MembershipResolver, matrix *rbac.Matrix, metrics *Metrics) (*Decider, error) {
	if err := matrix.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to build decider: %w", err)
	}
	slugCache, err := lru.New[string, int64](slugCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create slug cache: %w", err)
	}
	return &Decider{
		directory: directory,
		resolver:  resolver,
		matrix:    matrix,
		metrics:   metrics,
		tracer:    otel.Tracer("crewkit/access"),
		slugCache: slugCache,
	}, nil
}

// Authorize evaluates whether the actor may perform the action on the
// resource within the referenced team.
//
// The call is idempotent and side-effect free: repeated calls with
// unchanged membership state return the same decision, and cancellation at
// any point is safe to abandon.
//
// Expected deny outcomes (not a member, insufficient role) come back as a
// Decision; only an unresolvable team reference (ErrTeamNotFound) or a
// storage failure is an error. On deny the caller must halt and must not
// execute the underlying operation.
func (d *Decider) Authorize(ctx context.Context, userID int64, ref TeamRef, resource rbac.Resource, action rbac.Action) (*Decision, error) {
	if userID == 0 {
		return nil, ErrNoActor
	}

	ctx, span := d.tracer.Start(ctx, "access.Authorize",
		trace.WithAttributes(
			attribute.String("access.team_ref", ref.String()),
			attribute.String("access.resource", string(resource)),
			attribute.String("access.action", string(action)),
		))
	defer span.End()

	team, err := d.resolveTeam(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrTeamNotFound) {
			d.count("error", "team_not_found")
		}
		return nil, err
	}

	decision := &Decision{TeamID: team.ID, Resource: resource, Action: action}

	role, err := d.resolver.Resolve(ctx, userID, team.ID)
	if errors.Is(err, ErrNotAMember) {
		decision.Reason = DenyNotAMember
		d.count("deny", string(DenyNotAMember))
		span.SetAttributes(attribute.String("access.outcome", "deny"))
		return decision, nil
	}
	if err != nil {
		return nil, err
	}

	decision.Role = role
	if !d.matrix.Allows(role, resource, action) {
		decision.Reason = DenyInsufficientRole
		d.count("deny", string(DenyInsufficientRole))
		span.SetAttributes(attribute.String("access.outcome", "deny"))
		return decision, nil
	}

	decision.Allowed = true
	d.count("allow", "")
	span.SetAttributes(attribute.String("access.outcome", "allow"))
	return decision, nil
}

// resolveTeam canonicalizes a team reference to the team row. The row is
// always fetched fresh so a deleted team is reported as not found even if
// its slug is still cached.
func (d *Decider) resolveTeam(ctx context.Context, ref TeamRef) (*teams.Team, error) {
	if ref.ID != 0 {
		return d.getTeam(ctx, ref.ID)
	}
	if ref.Slug == "" {
		return nil, ErrTeamNotFound
	}

	if id, ok := d.slugCache.Get(ref.Slug); ok {
		team, err := d.getTeam(ctx, id)
		if errors.Is(err, ErrTeamNotFound) {
			d.slugCache.Remove(ref.Slug)
			return nil, err
		}
		return team, err
	}

	team, err := d.directory.GetTeamBySlug(ctx, ref.Slug)
	if errors.Is(err, teams.ErrTeamNotFound) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve team slug: %w", err)
	}

	d.slugCache.Add(ref.Slug, team.ID)
	return team, nil
}

func (d *Decider) getTeam(ctx context.Context, id int64) (*teams.Team, error) {
	team, err := d.directory.GetTeam(ctx, id)
	if errors.Is(err, teams.ErrTeamNotFound) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve team: %w", err)
	}
	return team, nil
}

func (d *Decider) count(outcome, reason string) {
	if d.metrics != nil {
		d.metrics.DecisionsTotal.WithLabelValues(outcome, reason).Inc()
	}
}
