// Package webhooks manages team-scoped webhook endpoint configuration.
//
// Only the endpoint registry lives here: delivery, signing and retries are
// owned by the external webhook provider. Every operation goes through a
// scoped.Scope so one team's endpoints are invisible to another.
package webhooks

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crewkit/crewkit/pkg/scoped"
)

// Endpoint represents a team's webhook endpoint configuration.
type Endpoint struct {
	ID          int64     `json:"id"`
	TeamID      int64     `json:"team_id"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Secret      string    `json:"secret,omitempty"`
	EventTypes  []string  `json:"event_types"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateEndpointRequest represents a request to register an endpoint.
type CreateEndpointRequest struct {
	Description string   `json:"description"`
	URL         string   `json:"url"`
	EventTypes  []string `json:"event_types"`
}

// UpdateEndpointRequest represents a request to update an endpoint.
type UpdateEndpointRequest struct {
	Description *string  `json:"description,omitempty"`
	URL         *string  `json:"url,omitempty"`
	EventTypes  []string `json:"event_types,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

// Store persists webhook endpoints in PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore creates a new webhook endpoint store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create registers an endpoint for the scope's team. The signing secret is
// generated server-side; the team id comes from the scope, never the
// payload.
func (s *Store) Create(ctx context.Context, scope scoped.Scope, req CreateEndpointRequest) (*Endpoint, error) {
	endpoint := &Endpoint{
		TeamID:      scope.TeamID(),
		Description: req.Description,
		URL:         req.URL,
		Secret:      "whsec_" + uuid.NewString(),
		EventTypes:  req.EventTypes,
		IsActive:    true,
	}
	if endpoint.EventTypes == nil {
		endpoint.EventTypes = []string{}
	}

	eventTypesJSON, err := json.Marshal(endpoint.EventTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event types: %w", err)
	}

	query := `
		INSERT INTO webhook_endpoints (team_id, description, url, secret, event_types, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err = s.db.QueryRowContext(ctx, query, endpoint.TeamID, endpoint.Description, endpoint.URL,
		endpoint.Secret, eventTypesJSON, endpoint.IsActive).
		Scan(&endpoint.ID, &endpoint.CreatedAt, &endpoint.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook endpoint: %w", err)
	}
	return endpoint, nil
}

// Get retrieves one endpoint within the scope's team.
func (s *Store) Get(ctx context.Context, scope scoped.Scope, id int64) (*Endpoint, error) {
	query := `
		SELECT id, team_id, description, url, secret, event_types, is_active, created_at, updated_at
		FROM webhook_endpoints
		WHERE id = $1 AND team_id = $2
	`
	return s.scanEndpoint(s.db.QueryRowContext(ctx, query, id, scope.TeamID()))
}

// List returns the endpoints belonging to the scope's team.
func (s *Store) List(ctx context.Context, scope scoped.Scope) ([]*Endpoint, error) {
	query := `
		SELECT id, team_id, description, url, secret, event_types, is_active, created_at, updated_at
		FROM webhook_endpoints
		WHERE team_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, scope.TeamID())
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook endpoints: %w", err)
	}
	defer rows.Close()

	var endpoints []*Endpoint
	for rows.Next() {
		endpoint, err := s.scanEndpoint(rows)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, endpoint)
	}
	return endpoints, rows.Err()
}

// Update modifies an endpoint. An id belonging to another team reads as
// not found.
func (s *Store) Update(ctx context.Context, scope scoped.Scope, id int64, req UpdateEndpointRequest) error {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{}
	idx := 1

	if req.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", idx))
		args = append(args, *req.Description)
		idx++
	}
	if req.URL != nil {
		sets = append(sets, fmt.Sprintf("url = $%d", idx))
		args = append(args, *req.URL)
		idx++
	}
	if req.EventTypes != nil {
		eventTypesJSON, err := json.Marshal(req.EventTypes)
		if err != nil {
			return fmt.Errorf("failed to marshal event types: %w", err)
		}
		sets = append(sets, fmt.Sprintf("event_types = $%d", idx))
		args = append(args, eventTypesJSON)
		idx++
	}
	if req.IsActive != nil {
		sets = append(sets, fmt.Sprintf("is_active = $%d", idx))
		args = append(args, *req.IsActive)
		idx++
	}

	query := fmt.Sprintf(`UPDATE webhook_endpoints SET %s WHERE id = $%d AND team_id = $%d`,
		strings.Join(sets, ", "), idx, idx+1)
	args = append(args, id, scope.TeamID())

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update webhook endpoint: %w", err)
	}
	return scoped.RequireRow(result)
}

// Delete removes an endpoint within the scope's team.
func (s *Store) Delete(ctx context.Context, scope scoped.Scope, id int64) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM webhook_endpoints WHERE id = $1 AND team_id = $2`, id, scope.TeamID())
	if err != nil {
		return fmt.Errorf("failed to delete webhook endpoint: %w", err)
	}
	return scoped.RequireRow(result)
}

func (s *Store) scanEndpoint(scanner interface{ Scan(dest ...interface{}) error }) (*Endpoint, error) {
	endpoint := &Endpoint{}
	var eventTypesJSON []byte
	err := scanner.Scan(&endpoint.ID, &endpoint.TeamID, &endpoint.Description, &endpoint.URL,
		&endpoint.Secret, &eventTypesJSON, &endpoint.IsActive, &endpoint.CreatedAt, &endpoint.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, scoped.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook endpoint: %w", err)
	}
	if err := json.Unmarshal(eventTypesJSON, &endpoint.EventTypes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event types: %w", err)
	}
	return endpoint, nil
}
