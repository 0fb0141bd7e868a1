// Package rbac defines the role model and permission matrix for team-scoped
// access control.
//
// # Overview
//
// Roles form a closed, strictly ordered set (owner > admin > member). The
// ordering is exposed through Role.AtLeast for display and ergonomic checks
// only; actual authorization decisions come from the Matrix, a static
// (role, resource, action) -> bool table that is built once at startup and
// never mutated.
//
// # Default Deny
//
// Any (resource, action) pair without an explicit matrix entry evaluates to
// deny. Matrix.Validate enforces completeness at startup: every defined pair
// must carry an explicit entry (true or false) for every role, so gaps are a
// fatal ConfigurationGapError instead of a silent runtime fallback.
//
// # Usage Example
//
//	matrix := rbac.DefaultMatrix()
//	if err := matrix.Validate(); err != nil {
//		log.Fatalf("invalid permission matrix: %v", err)
//	}
//	if matrix.Allows(rbac.RoleAdmin, rbac.ResourceBilling, rbac.ActionUpdate) {
//		// proceed
//	}
//
// # Related Packages
//
//   - pkg/access: composes the matrix with membership resolution
//   - pkg/teams: stores the membership rows the roles come from
package rbac
