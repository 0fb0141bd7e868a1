package teams

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a database migration.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns the team schema migrations. Every team-scoped table
// carries a NOT NULL team_id with ON DELETE CASCADE so an owner-initiated
// team deletion removes all tenant rows.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create teams table",
			SQL: `
				CREATE TABLE IF NOT EXISTS teams (
					id BIGSERIAL PRIMARY KEY,
					slug VARCHAR(255) NOT NULL UNIQUE,
					name VARCHAR(255) NOT NULL,
					features JSONB NOT NULL DEFAULT '{}',
					created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_teams_slug ON teams(slug);
			`,
		},
		{
			Version:     2,
			Description: "Create team_members table",
			SQL: `
				CREATE TABLE IF NOT EXISTS team_members (
					id BIGSERIAL PRIMARY KEY,
					team_id BIGINT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
					user_id BIGINT NOT NULL,
					role VARCHAR(50) NOT NULL,
					invited_by BIGINT,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
					UNIQUE(team_id, user_id)
				);

				CREATE INDEX IF NOT EXISTS idx_team_members_team_id ON team_members(team_id);
				CREATE INDEX IF NOT EXISTS idx_team_members_user_id ON team_members(user_id);
			`,
		},
		{
			Version:     3,
			Description: "Create team_invitations table",
			SQL: `
				CREATE TABLE IF NOT EXISTS team_invitations (
					id BIGSERIAL PRIMARY KEY,
					team_id BIGINT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
					email VARCHAR(255) NOT NULL,
					role VARCHAR(50) NOT NULL,
					token VARCHAR(100) NOT NULL UNIQUE,
					invited_by BIGINT NOT NULL,
					invited_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
					expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
					accepted_at TIMESTAMP WITH TIME ZONE,
					accepted_by BIGINT,
					UNIQUE(team_id, email)
				);

				CREATE INDEX IF NOT EXISTS idx_team_invitations_team_id ON team_invitations(team_id);
				CREATE INDEX IF NOT EXISTS idx_team_invitations_expires_at ON team_invitations(expires_at);
			`,
		},
		{
			Version:     4,
			Description: "Create api_keys table",
			SQL: `
				CREATE TABLE IF NOT EXISTS api_keys (
					id BIGSERIAL PRIMARY KEY,
					team_id BIGINT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
					name VARCHAR(255) NOT NULL,
					key_hash VARCHAR(64) NOT NULL UNIQUE,
					key_prefix VARCHAR(16) NOT NULL,
					created_by BIGINT NOT NULL,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
					last_used_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX IF NOT EXISTS idx_api_keys_team_id ON api_keys(team_id);
				CREATE INDEX IF NOT EXISTS idx_api_keys_key_hash ON api_keys(key_hash);
			`,
		},
		{
			Version:     5,
			Description: "Create webhook_endpoints table",
			SQL: `
				CREATE TABLE IF NOT EXISTS webhook_endpoints (
					id BIGSERIAL PRIMARY KEY,
					team_id BIGINT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
					description VARCHAR(255) NOT NULL,
					url TEXT NOT NULL,
					secret VARCHAR(100) NOT NULL,
					event_types JSONB NOT NULL DEFAULT '[]',
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_webhook_endpoints_team_id ON webhook_endpoints(team_id);
			`,
		},
		{
			Version:     6,
			Description: "Create billing_settings table",
			SQL: `
				CREATE TABLE IF NOT EXISTS billing_settings (
					team_id BIGINT PRIMARY KEY REFERENCES teams(id) ON DELETE CASCADE,
					plan VARCHAR(50) NOT NULL DEFAULT 'free',
					billing_email VARCHAR(255),
					seat_limit INTEGER NOT NULL DEFAULT 0,
					updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
				);
			`,
		},
	}
}

// RunMigrations applies all pending migrations in order.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	for _, migration := range GetMigrations() {
		var applied bool
		err := db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`,
			migration.Version).Scan(&applied)
		if err != nil {
			return fmt.Errorf("failed to check migration %d: %w", migration.Version, err)
		}
		if applied {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", migration.Version, err)
		}
		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %d (%s): %w",
				migration.Version, migration.Description, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, description) VALUES ($1, $2)`,
			migration.Version, migration.Description); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
