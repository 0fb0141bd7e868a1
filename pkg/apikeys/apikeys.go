// Package apikeys manages team-scoped API keys.
//
// Keys are random secrets shown once at creation; only a SHA-256 hash and
// a short display prefix are stored. All queries go through a scoped.Scope,
// so a key can never be read or revoked across a team boundary.
package apikeys

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/crewkit/crewkit/pkg/scoped"
)

const (
	// KeyPrefix identifies Crewkit API keys.
	KeyPrefix = "ck_"
	// keyLength is the number of random bytes per key (256 bits).
	keyLength = 32
)

// APIKey represents a team-scoped API key. The secret itself is returned
// only from Create and never stored.
type APIKey struct {
	ID         int64      `json:"id"`
	TeamID     int64      `json:"team_id"`
	Name       string     `json:"name"`
	KeyHash    string     `json:"-"`
	KeyPrefix  string     `json:"key_prefix"`
	CreatedBy  int64      `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// Store persists API keys in PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore creates a new API key store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// GenerateKey creates a new secret with its storage hash and display
// prefix. Format: ck_<base64url(32 random bytes)>.
func GenerateKey() (secret, hash, prefix string, err error) {
	randomBytes := make([]byte, keyLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(randomBytes)
	secret = KeyPrefix + encoded

	sum := sha256.Sum256([]byte(secret))
	hash = hex.EncodeToString(sum[:])
	prefix = KeyPrefix + encoded[:8]
	return secret, hash, prefix, nil
}

// HashKey computes the storage hash of a presented secret for lookup.
func HashKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Create stores a new key for the scope's team and returns the key together
// with the one-time secret. The team id is stamped from the scope, never
// from the request payload.
func (s *Store) Create(ctx context.Context, scope scoped.Scope, name string, createdBy int64) (*APIKey, string, error) {
	secret, hash, prefix, err := GenerateKey()
	if err != nil {
		return nil, "", err
	}

	key := &APIKey{
		TeamID:    scope.TeamID(),
		Name:      name,
		KeyHash:   hash,
		KeyPrefix: prefix,
		CreatedBy: createdBy,
	}

	query := `
		INSERT INTO api_keys (team_id, name, key_hash, key_prefix, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err = s.db.QueryRowContext(ctx, query, key.TeamID, key.Name, key.KeyHash, key.KeyPrefix, key.CreatedBy).
		Scan(&key.ID, &key.CreatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create api key: %w", err)
	}

	return key, secret, nil
}

// List returns the keys belonging to the scope's team.
func (s *Store) List(ctx context.Context, scope scoped.Scope) ([]*APIKey, error) {
	query := `
		SELECT id, team_id, name, key_hash, key_prefix, created_by, created_at, last_used_at
		FROM api_keys
		WHERE team_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, scope.TeamID())
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	defer rows.Close()

	var keys []*APIKey
	for rows.Next() {
		key := &APIKey{}
		if err := rows.Scan(&key.ID, &key.TeamID, &key.Name, &key.KeyHash, &key.KeyPrefix,
			&key.CreatedBy, &key.CreatedAt, &key.LastUsedAt); err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Delete revokes a key. A key id belonging to another team reads as not
// found.
func (s *Store) Delete(ctx context.Context, scope scoped.Scope, id int64) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM api_keys WHERE id = $1 AND team_id = $2`, id, scope.TeamID())
	if err != nil {
		return fmt.Errorf("failed to delete api key: %w", err)
	}
	return scoped.RequireRow(result)
}

// Touch records use of a key within the scope's team.
func (s *Store) Touch(ctx context.Context, scope scoped.Scope, id int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE api_keys SET last_used_at = NOW() WHERE id = $1 AND team_id = $2`,
		id, scope.TeamID())
	if err != nil {
		return fmt.Errorf("failed to touch api key: %w", err)
	}
	return scoped.RequireRow(result)
}
