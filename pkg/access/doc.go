// Package access composes team resolution, membership lookup and the
// permission matrix into a single authorization decision.
//
// # Overview
//
// Decider.Authorize is the one call every protected operation makes before
// touching team-scoped data:
//
//  1. Resolve the team reference (id or slug) to the canonical team row;
//     an unresolvable reference fails with ErrTeamNotFound.
//  2. Resolve the actor's membership; no membership yields a deny decision
//     with reason not_a_member, never an error.
//  3. Look up (role, resource, action) in the matrix; a miss or explicit
//     false yields a deny with reason insufficient_role.
//
// An allowed Decision carries the verified team id and role. Handlers and
// stores must take the tenant id from the Decision, never from request
// input; pkg/scoped enforces this structurally.
//
// # Caching
//
// The optional CachedResolver keeps memberships in Redis. Coherency comes
// from synchronous invalidation on every membership mutation (the team
// service calls InvalidateMembership before reporting success), not from
// TTL expiry, so role downgrades take effect on the next decision.
//
// # Usage Example
//
//	decision, err := decider.Authorize(ctx, userID, access.RefBySlug(slug),
//		rbac.ResourceMembers, rbac.ActionRead)
//	if err != nil { ... }           // team not found or storage failure
//	if !decision.Allowed { ... }    // halt, map reason to 403/404
//	scope, err := scoped.For(decision)
//	if err != nil { ... }
//	members, err := store.ListMembers(ctx, scope.TeamID())
package access
