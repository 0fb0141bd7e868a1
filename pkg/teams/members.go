package teams

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/crewkit/crewkit/pkg/rbac"
)

// ListMembers retrieves all members of a team.
func (s *PostgresService) ListMembers(ctx context.Context, teamID int64) ([]*Membership, error) {
	query := `
		SELECT id, team_id, user_id, role, invited_by, created_at, updated_at
		FROM team_members
		WHERE team_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*Membership
	for rows.Next() {
		member := &Membership{}
		if err := rows.Scan(
			&member.ID, &member.TeamID, &member.UserID, &member.Role,
			&member.InvitedBy, &member.CreatedAt, &member.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// GetMember retrieves a specific membership.
func (s *PostgresService) GetMember(ctx context.Context, teamID, userID int64) (*Membership, error) {
	query := `
		SELECT id, team_id, user_id, role, invited_by, created_at, updated_at
		FROM team_members
		WHERE team_id = $1 AND user_id = $2
	`
	member := &Membership{}
	err := s.db.QueryRowContext(ctx, query, teamID, userID).Scan(
		&member.ID, &member.TeamID, &member.UserID, &member.Role,
		&member.InvitedBy, &member.CreatedAt, &member.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return member, nil
}

// AddMember adds a user to a team. A second membership for the same
// (team, user) pair is rejected, the unique constraint is the source of
// truth.
func (s *PostgresService) AddMember(ctx context.Context, teamID, userID int64, role rbac.Role, invitedBy *int64) error {
	query := `
		INSERT INTO team_members (team_id, user_id, role, invited_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (team_id, user_id) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query, teamID, userID, role, invitedBy)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrMemberExists
	}
	return nil
}

// UpdateMemberRole changes a member's role in a single atomic update, then
// invalidates any cached authorization state so the change takes effect on
// the next decision.
func (s *PostgresService) UpdateMemberRole(ctx context.Context, teamID, userID int64, role rbac.Role) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := lockMemberRole(ctx, tx, teamID, userID)
	if err != nil {
		return err
	}

	// A team always keeps at least one owner.
	if current == rbac.RoleOwner && role != rbac.RoleOwner {
		if err := requireAnotherOwner(ctx, tx, teamID, userID); err != nil {
			return err
		}
	}

	query := `UPDATE team_members SET role = $1, updated_at = NOW() WHERE team_id = $2 AND user_id = $3`
	if _, err := tx.ExecContext(ctx, query, role, teamID, userID); err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit role change: %w", err)
	}

	s.invalidateMembership(teamID, userID)
	return nil
}

// RemoveMember removes a user from a team and invalidates cached
// authorization state for the pair.
func (s *PostgresService) RemoveMember(ctx context.Context, teamID, userID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := lockMemberRole(ctx, tx, teamID, userID)
	if err != nil {
		return err
	}

	if current == rbac.RoleOwner {
		if err := requireAnotherOwner(ctx, tx, teamID, userID); err != nil {
			return err
		}
	}

	query := `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`
	if _, err := tx.ExecContext(ctx, query, teamID, userID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit member removal: %w", err)
	}

	s.invalidateMembership(teamID, userID)
	return nil
}

// lockMemberRole reads the member's current role with a row lock so
// concurrent role changes serialize on the membership row.
func lockMemberRole(ctx context.Context, tx *sql.Tx, teamID, userID int64) (rbac.Role, error) {
	var role rbac.Role
	query := `SELECT role FROM team_members WHERE team_id = $1 AND user_id = $2 FOR UPDATE`
	err := tx.QueryRowContext(ctx, query, teamID, userID).Scan(&role)
	if err == sql.ErrNoRows {
		return "", ErrMemberNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get member role: %w", err)
	}
	return role, nil
}

func requireAnotherOwner(ctx context.Context, tx *sql.Tx, teamID, excludeUserID int64) error {
	var owners int
	query := `SELECT COUNT(*) FROM team_members WHERE team_id = $1 AND role = $2 AND user_id <> $3`
	err := tx.QueryRowContext(ctx, query, teamID, rbac.RoleOwner, excludeUserID).Scan(&owners)
	if err != nil {
		return fmt.Errorf("failed to count owners: %w", err)
	}
	if owners == 0 {
		return ErrLastOwner
	}
	return nil
}
