package teams

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/crewkit/crewkit/pkg/async"
	"github.com/crewkit/crewkit/pkg/rbac"
)

// PostgresService implements team, membership and invitation persistence
// using PostgreSQL.
type PostgresService struct {
	db          *sql.DB
	invalidator MembershipInvalidator
}

// NewPostgresService creates a new PostgresService.
func NewPostgresService(db *sql.DB) *PostgresService {
	return &PostgresService{db: db}
}

// SetMembershipInvalidator wires the cache invalidation hook. Must be set
// before the service handles membership mutations when a membership cache
// is in use.
func (s *PostgresService) SetMembershipInvalidator(inv MembershipInvalidator) {
	s.invalidator = inv
}

func (s *PostgresService) invalidateMembership(teamID, userID int64) {
	if s.invalidator != nil {
		s.invalidator.InvalidateMembership(teamID, userID)
	}
}

// CreateTeam creates a team and its owner membership in one transaction.
// The creator always becomes the first owner.
func (s *PostgresService) CreateTeam(ctx context.Context, req CreateTeamRequest, ownerID int64) (*Team, error) {
	slug := req.Slug
	if slug == "" {
		slug = generateSlug(req.Name)
	}
	// Route paths treat an all-numeric team segment as a team id, so a
	// slug like "42" could never be addressed. Reject those along with
	// anything outside the slug alphabet.
	if !validSlug(slug) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	team := &Team{Slug: slug, Name: req.Name, Features: map[string]bool{}}
	featuresJSON, err := json.Marshal(team.Features)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal features: %w", err)
	}

	query := `
		INSERT INTO teams (slug, name, features)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRowContext(ctx, query, team.Slug, team.Name, featuresJSON).
		Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	query = `
		INSERT INTO team_members (team_id, user_id, role)
		VALUES ($1, $2, $3)
	`
	if _, err := tx.ExecContext(ctx, query, team.ID, ownerID, rbac.RoleOwner); err != nil {
		return nil, fmt.Errorf("failed to create owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit team creation: %w", err)
	}

	return team, nil
}

// GetTeam retrieves a team by ID.
func (s *PostgresService) GetTeam(ctx context.Context, id int64) (*Team, error) {
	query := `
		SELECT id, slug, name, features, created_at, updated_at
		FROM teams
		WHERE id = $1
	`
	return s.scanTeam(s.db.QueryRowContext(ctx, query, id))
}

// GetTeamBySlug retrieves a team by its unique slug.
func (s *PostgresService) GetTeamBySlug(ctx context.Context, slug string) (*Team, error) {
	query := `
		SELECT id, slug, name, features, created_at, updated_at
		FROM teams
		WHERE slug = $1
	`
	return s.scanTeam(s.db.QueryRowContext(ctx, query, slug))
}

// ListTeams lists the teams the user is a member of.
func (s *PostgresService) ListTeams(ctx context.Context, userID int64) ([]*Team, error) {
	query := `
		SELECT t.id, t.slug, t.name, t.features, t.created_at, t.updated_at
		FROM teams t
		JOIN team_members tm ON tm.team_id = t.id
		WHERE tm.user_id = $1
		ORDER BY t.created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []*Team
	for rows.Next() {
		team, err := s.scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

// UpdateTeam updates the team's display name and feature flags.
func (s *PostgresService) UpdateTeam(ctx context.Context, id int64, req UpdateTeamRequest) error {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{}
	idx := 1

	if req.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", idx))
		args = append(args, *req.Name)
		idx++
	}
	if req.Features != nil {
		featuresJSON, err := json.Marshal(req.Features)
		if err != nil {
			return fmt.Errorf("failed to marshal features: %w", err)
		}
		sets = append(sets, fmt.Sprintf("features = $%d", idx))
		args = append(args, featuresJSON)
		idx++
	}

	query := fmt.Sprintf(`UPDATE teams SET %s WHERE id = $%d`, strings.Join(sets, ", "), idx)
	args = append(args, id)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update team: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTeamNotFound
	}
	return nil
}

// DeleteTeam deletes a team. Memberships, invitations and all team-scoped
// rows are removed by ON DELETE CASCADE foreign keys. Cached memberships
// for the team are invalidated so removed access takes effect immediately.
func (s *PostgresService) DeleteTeam(ctx context.Context, id int64) error {
	memberIDs, err := s.memberUserIDs(ctx, id)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTeamNotFound
	}

	if s.invalidator != nil && len(memberIDs) > 0 {
		async.Batch(ctx, memberIDs, 4, "membership invalidation", 5*time.Second,
			func(ctx context.Context, userID int64) error {
				s.invalidator.InvalidateMembership(id, userID)
				return nil
			})
	}
	return nil
}

func (s *PostgresService) memberUserIDs(ctx context.Context, teamID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM team_members WHERE team_id = $1`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list member ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan member id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *PostgresService) scanTeam(scanner rowScanner) (*Team, error) {
	team := &Team{}
	var featuresJSON []byte
	err := scanner.Scan(&team.ID, &team.Slug, &team.Name, &featuresJSON,
		&team.CreatedAt, &team.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	if len(featuresJSON) > 0 {
		if err := json.Unmarshal(featuresJSON, &team.Features); err != nil {
			return nil, fmt.Errorf("failed to unmarshal features: %w", err)
		}
	}
	return team, nil
}

var (
	slugCleaner = regexp.MustCompile(`[^a-z0-9-]+`)
	slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)
	digitsOnly  = regexp.MustCompile(`^[0-9]+$`)
)

// validSlug reports whether slug fits the slug alphabet and is not purely
// numeric.
func validSlug(slug string) bool {
	return slugPattern.MatchString(slug) && !digitsOnly.MatchString(slug)
}

// generateSlug derives a URL-safe slug from a team name. All-numeric names
// get a prefix so the result stays addressable by slug.
func generateSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = slugCleaner.ReplaceAllString(slug, "")
	slug = strings.Trim(slug, "-")
	if slug != "" && digitsOnly.MatchString(slug) {
		slug = "team-" + slug
	}
	return slug
}
