package teams

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/crewkit/crewkit/pkg/rbac"
)

// invitationTTL is how long an invitation stays valid.
const invitationTTL = 7 * 24 * time.Hour

// CreateInvitation creates or refreshes an invitation. Re-inviting the same
// email replaces the previous token and expiry.
func (s *PostgresService) CreateInvitation(ctx context.Context, invitation *Invitation) error {
	invitation.Token = uuid.NewString()
	if invitation.InvitedAt.IsZero() {
		invitation.InvitedAt = time.Now()
	}
	if invitation.ExpiresAt.IsZero() {
		invitation.ExpiresAt = invitation.InvitedAt.Add(invitationTTL)
	}

	query := `
		INSERT INTO team_invitations (team_id, email, role, token, invited_by, invited_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (team_id, email) DO UPDATE
		SET role = EXCLUDED.role, token = EXCLUDED.token, invited_at = EXCLUDED.invited_at, expires_at = EXCLUDED.expires_at
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query, invitation.TeamID, invitation.Email, invitation.Role,
		invitation.Token, invitation.InvitedBy, invitation.InvitedAt, invitation.ExpiresAt).
		Scan(&invitation.ID)
	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

// GetInvitation retrieves an invitation by its token.
func (s *PostgresService) GetInvitation(ctx context.Context, token string) (*Invitation, error) {
	query := `
		SELECT id, team_id, email, role, token, invited_by, invited_at, expires_at, accepted_at, accepted_by
		FROM team_invitations
		WHERE token = $1
	`
	invitation := &Invitation{}
	err := s.db.QueryRowContext(ctx, query, token).Scan(
		&invitation.ID, &invitation.TeamID, &invitation.Email, &invitation.Role,
		&invitation.Token, &invitation.InvitedBy, &invitation.InvitedAt, &invitation.ExpiresAt,
		&invitation.AcceptedAt, &invitation.AcceptedBy,
	)
	if err == sql.ErrNoRows {
		return nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return invitation, nil
}

// ListInvitations lists pending invitations for a team.
func (s *PostgresService) ListInvitations(ctx context.Context, teamID int64) ([]*Invitation, error) {
	query := `
		SELECT id, team_id, email, role, token, invited_by, invited_at, expires_at, accepted_at, accepted_by
		FROM team_invitations
		WHERE team_id = $1 AND accepted_at IS NULL
		ORDER BY invited_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var invitations []*Invitation
	for rows.Next() {
		invitation := &Invitation{}
		if err := rows.Scan(
			&invitation.ID, &invitation.TeamID, &invitation.Email, &invitation.Role,
			&invitation.Token, &invitation.InvitedBy, &invitation.InvitedAt, &invitation.ExpiresAt,
			&invitation.AcceptedAt, &invitation.AcceptedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, invitation)
	}
	return invitations, rows.Err()
}

// AcceptInvitation accepts an invitation and adds the user to the team in
// one transaction. The invited role applies only if the user is not already
// a member; an existing membership is left untouched.
func (s *PostgresService) AcceptInvitation(ctx context.Context, token string, userID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT id, team_id, role, invited_by, expires_at, accepted_at
		FROM team_invitations
		WHERE token = $1
		FOR UPDATE
	`
	var (
		id, teamID int64
		role       rbac.Role
		invitedBy  int64
		expiresAt  time.Time
		acceptedAt sql.NullTime
	)
	err = tx.QueryRowContext(ctx, query, token).Scan(&id, &teamID, &role, &invitedBy, &expiresAt, &acceptedAt)
	if err == sql.ErrNoRows {
		return ErrInvitationNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get invitation: %w", err)
	}

	if acceptedAt.Valid {
		return ErrInvitationAccepted
	}
	if time.Now().After(expiresAt) {
		return ErrInvitationExpired
	}

	query = `
		INSERT INTO team_members (team_id, user_id, role, invited_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (team_id, user_id) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, query, teamID, userID, role, invitedBy); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	query = `UPDATE team_invitations SET accepted_at = NOW(), accepted_by = $1 WHERE id = $2`
	if _, err := tx.ExecContext(ctx, query, userID, id); err != nil {
		return fmt.Errorf("failed to update invitation: %w", err)
	}

	return tx.Commit()
}

// RevokeInvitation revokes a pending invitation.
func (s *PostgresService) RevokeInvitation(ctx context.Context, teamID, id int64) error {
	query := `DELETE FROM team_invitations WHERE id = $1 AND team_id = $2 AND accepted_at IS NULL`
	result, err := s.db.ExecContext(ctx, query, id, teamID)
	if err != nil {
		return fmt.Errorf("failed to revoke invitation: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrInvitationNotFound
	}
	return nil
}

// CleanupExpiredInvitations removes expired, unaccepted invitations. Wired
// to a cron schedule in main.
func (s *PostgresService) CleanupExpiredInvitations(ctx context.Context) (int64, error) {
	query := `DELETE FROM team_invitations WHERE expires_at < NOW() AND accepted_at IS NULL`
	result, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired invitations: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return removed, nil
}
