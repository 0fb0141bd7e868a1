// Package teams provides multi-tenant team management: teams, memberships
// and invitations.
//
// # Overview
//
// A team is the tenant isolation boundary. Every team-scoped row carries a
// NOT NULL team_id stamped at creation; memberships bind a user to a team
// with exactly one role, and the (team_id, user_id) pair is unique at the
// database level.
//
// # Membership Mutations
//
// Role changes and removals run in a transaction with a row lock, so no
// request observes a half-updated role, and they synchronously notify the
// configured MembershipInvalidator so cached authorization state never
// survives the mutation. Teams always retain at least one owner.
//
// # Invitations
//
// Invitations carry a uuid token and a 7-day expiry. Accepting one inserts
// the membership and marks the invitation accepted in a single transaction.
// Expired rows are swept by CleanupExpiredInvitations on a cron schedule.
//
// # Related Packages
//
//   - pkg/rbac: the role set stored per membership
//   - pkg/access: resolves memberships into access decisions
package teams
