// Package scoped enforces the team-scoped query discipline: every read and
// write of team-scoped data filters by a tenant id that came from a
// verified access decision, never from request input.
//
// A Scope can only be built from an allowed access.Decision, so a store
// that takes a Scope parameter structurally cannot be handed a
// client-supplied team id. Cross-tenant updates and deletes surface as
// ErrNotFound, never as "forbidden", to avoid leaking row existence across
// tenants.
package scoped

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/crewkit/crewkit/pkg/access"
)

var (
	// ErrNotFound covers both genuinely missing rows and rows that exist
	// in another tenant. Callers must not distinguish the two.
	ErrNotFound = errors.New("record not found")

	// ErrDenied means someone tried to build a Scope from a nil or denied
	// decision. That is a caller bug, not an expected outcome.
	ErrDenied = errors.New("cannot scope queries to a denied decision")
)

// Scope carries the verified tenant id for one request's data access.
type Scope struct {
	teamID int64
}

// For builds a Scope from an allowed decision.
func For(decision *access.Decision) (Scope, error) {
	if decision == nil || !decision.Allowed {
		return Scope{}, ErrDenied
	}
	if decision.TeamID == 0 {
		return Scope{}, fmt.Errorf("decision carries no team id: %w", ErrDenied)
	}
	return Scope{teamID: decision.TeamID}, nil
}

// TeamID returns the verified tenant id. Stores use it as the equality
// filter on every query and stamp it on every insert.
func (s Scope) TeamID() int64 {
	return s.teamID
}

// RequireRow translates a mutation result into ErrNotFound when no row in
// this tenant matched, collapsing "missing" and "belongs to another
// tenant" into one answer.
func RequireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
