// Package billing manages team-scoped billing settings.
//
// Only the settings record lives here: payment processing, invoicing and
// plan enforcement are owned by the external billing provider. Every
// operation goes through a scoped.Scope so one team's settings are
// invisible to another.
package billing

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/crewkit/crewkit/pkg/scoped"
)

// PlanTier identifies the team's subscription plan.
type PlanTier string

const (
	PlanFree       PlanTier = "free"
	PlanPro        PlanTier = "pro"
	PlanEnterprise PlanTier = "enterprise"
)

// Valid reports whether the tier is one of the known plans.
func (p PlanTier) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

// Settings is a team's billing configuration.
type Settings struct {
	TeamID       int64     `json:"team_id"`
	Plan         PlanTier  `json:"plan"`
	BillingEmail string    `json:"billing_email,omitempty"`
	SeatLimit    int       `json:"seat_limit"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UpdateSettingsRequest represents a request to change billing settings.
type UpdateSettingsRequest struct {
	Plan         *PlanTier `json:"plan,omitempty"`
	BillingEmail *string   `json:"billing_email,omitempty"`
	SeatLimit    *int      `json:"seat_limit,omitempty"`
}

// Store persists billing settings in PostgreSQL, one row per team.
type Store struct {
	db *sql.DB
}

// NewStore creates a new billing settings store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get retrieves the scope's billing settings. A team with no row yet reads
// as the free plan with no seat limit.
func (s *Store) Get(ctx context.Context, scope scoped.Scope) (*Settings, error) {
	query := `
		SELECT team_id, plan, billing_email, seat_limit, updated_at
		FROM billing_settings
		WHERE team_id = $1
	`
	settings := &Settings{}
	var email sql.NullString
	err := s.db.QueryRowContext(ctx, query, scope.TeamID()).Scan(
		&settings.TeamID, &settings.Plan, &email, &settings.SeatLimit, &settings.UpdatedAt)
	if err == sql.ErrNoRows {
		return &Settings{TeamID: scope.TeamID(), Plan: PlanFree}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get billing settings: %w", err)
	}
	settings.BillingEmail = email.String
	return settings, nil
}

// Update upserts the scope's billing settings and returns the result.
func (s *Store) Update(ctx context.Context, scope scoped.Scope, req UpdateSettingsRequest) (*Settings, error) {
	if req.Plan != nil && !req.Plan.Valid() {
		return nil, fmt.Errorf("unknown plan tier %q", *req.Plan)
	}

	current, err := s.Get(ctx, scope)
	if err != nil {
		return nil, err
	}
	if req.Plan != nil {
		current.Plan = *req.Plan
	}
	if req.BillingEmail != nil {
		current.BillingEmail = strings.TrimSpace(*req.BillingEmail)
	}
	if req.SeatLimit != nil {
		current.SeatLimit = *req.SeatLimit
	}

	query := `
		INSERT INTO billing_settings (team_id, plan, billing_email, seat_limit, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (team_id)
		DO UPDATE SET plan = $2, billing_email = $3, seat_limit = $4, updated_at = NOW()
		RETURNING updated_at
	`
	var email interface{}
	if current.BillingEmail != "" {
		email = current.BillingEmail
	}
	err = s.db.QueryRowContext(ctx, query, scope.TeamID(), current.Plan, email, current.SeatLimit).
		Scan(&current.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update billing settings: %w", err)
	}
	return current, nil
}
