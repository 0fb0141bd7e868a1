package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

const (
	// tokenPrefix identifies Crewkit session tokens.
	tokenPrefix = "cks_"
	tokenLength = 32

	// DefaultSessionTTL is how long a session stays valid.
	DefaultSessionTTL = 30 * 24 * time.Hour
)

// ErrInvalidSession means the presented token does not match an active
// session.
var ErrInvalidSession = errors.New("invalid or expired session")

// SessionStore persists sessions in PostgreSQL. Only a SHA-256 hash of the
// token is stored.
type SessionStore struct {
	db  *sql.DB
	ttl time.Duration
}

// NewSessionStore creates a session store and ensures its table exists.
func NewSessionStore(db *sql.DB) (*SessionStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	store := &SessionStore{db: db, ttl: DefaultSessionTTL}
	if err := store.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure sessions table: %w", err)
	}
	return store, nil
}

func (s *SessionStore) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		token_hash VARCHAR(64) NOT NULL UNIQUE,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
	`
	_, err := s.db.Exec(query)
	return err
}

// Create issues a new session for the user and returns the one-time token.
func (s *SessionStore) Create(ctx context.Context, userID int64) (*Session, string, error) {
	randomBytes := make([]byte, tokenLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	token := tokenPrefix + base64.RawURLEncoding.EncodeToString(randomBytes)

	session := &Session{
		UserID:    userID,
		TokenHash: hashToken(token),
		ExpiresAt: time.Now().Add(s.ttl),
	}

	query := `
		INSERT INTO sessions (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := s.db.QueryRowContext(ctx, query, session.UserID, session.TokenHash, session.ExpiresAt).
		Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create session: %w", err)
	}
	return session, token, nil
}

// Validate resolves a presented token to its session.
func (s *SessionStore) Validate(ctx context.Context, token string) (*Session, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, created_at
		FROM sessions
		WHERE token_hash = $1 AND expires_at > NOW()
	`
	session := &Session{}
	err := s.db.QueryRowContext(ctx, query, hashToken(token)).Scan(
		&session.ID, &session.UserID, &session.TokenHash, &session.ExpiresAt, &session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to validate session: %w", err)
	}
	return session, nil
}

// Revoke removes a session by token.
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = $1`, hashToken(token))
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
