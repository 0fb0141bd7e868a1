// Package api provides the HTTP surface for teams, memberships and
// team-scoped resources.
//
// # Overview
//
// All routes live under /api/v1 and require a Bearer session token. Every
// team-scoped route is registered with the (resource, action) pair it
// needs; RequireAccess evaluates the permission matrix before the handler
// runs and handlers derive their query scope from the resulting decision,
// never from the request payload.
//
// # Status mapping
//
//   - unknown team, or actor not a member: 404 (existence is not leaked)
//   - member without the required permission: 403
//   - missing or invalid session: 401
//   - cross-tenant row references: 404
//
// # Audit
//
// Allowed mutations emit an audit event after the store call succeeds.
// Emission is fire-and-forget and never fails the request.
//
// # Related Packages
//
//   - pkg/middleware: authentication and RequireAccess
//   - pkg/access: the decision function
//   - pkg/scoped: team-scoped query discipline
package api
