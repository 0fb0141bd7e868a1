package auth

import "time"

// User represents an authenticated account. Identity is immutable; a user
// is never deleted, only deactivated by removing all of their memberships.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Session represents an authenticated session issued by the external auth
// provider flow. The access layer only ever consumes the UserID.
type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthContext holds the authenticated actor for a request.
type AuthContext struct {
	UserID  int64
	Session *Session
}
