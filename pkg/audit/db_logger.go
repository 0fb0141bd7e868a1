package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/crewkit/crewkit/pkg/rbac"
	"github.com/crewkit/crewkit/pkg/scoped"
)

// DBLogger writes audit events to PostgreSQL. It doubles as the read side
// for the audit log resource; reads are always bound to a scope.
type DBLogger struct {
	db *sql.DB
}

// NewDBLogger creates a database-backed audit logger and ensures the
// audit_logs table exists.
func NewDBLogger(db *sql.DB) (*DBLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	logger := &DBLogger{db: db}
	if err := logger.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure audit table: %w", err)
	}
	return logger, nil
}

func (d *DBLogger) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS audit_logs (
		id BIGSERIAL PRIMARY KEY,
		timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
		action VARCHAR(64) NOT NULL,
		resource VARCHAR(64) NOT NULL,
		actor_id BIGINT NOT NULL,
		team_id BIGINT NOT NULL,
		status VARCHAR(16) NOT NULL,
		request_id VARCHAR(64),
		ip_address VARCHAR(45),
		message TEXT,
		metadata JSONB
	);

	CREATE INDEX IF NOT EXISTS idx_audit_logs_team_id ON audit_logs(team_id);
	CREATE INDEX IF NOT EXISTS idx_audit_logs_timestamp ON audit_logs(timestamp);
	CREATE INDEX IF NOT EXISTS idx_audit_logs_actor_id ON audit_logs(actor_id);
	`
	_, err := d.db.Exec(query)
	return err
}

// Log inserts an audit event.
func (d *DBLogger) Log(ctx context.Context, event *Event) error {
	metadataJSON, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO audit_logs (timestamp, action, resource, actor_id, team_id, status,
			request_id, ip_address, message, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = d.db.ExecContext(ctx, query,
		event.Timestamp, string(event.Action), string(event.Resource),
		event.ActorID, event.TeamID, string(event.Status),
		nullString(event.RequestID), nullString(event.IPAddress),
		nullString(event.Message), metadataJSON)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

// List reads audit events for the scope's team, newest first.
func (d *DBLogger) List(ctx context.Context, scope scoped.Scope, filter SearchFilter) ([]*Event, error) {
	conditions := []string{"team_id = $1"}
	args := []interface{}{scope.TeamID()}
	idx := 2

	if filter.StartTime != nil {
		conditions = append(conditions, fmt.Sprintf("timestamp >= $%d", idx))
		args = append(args, *filter.StartTime)
		idx++
	}
	if filter.EndTime != nil {
		conditions = append(conditions, fmt.Sprintf("timestamp <= $%d", idx))
		args = append(args, *filter.EndTime)
		idx++
	}
	if filter.ActorID != nil {
		conditions = append(conditions, fmt.Sprintf("actor_id = $%d", idx))
		args = append(args, *filter.ActorID)
		idx++
	}
	if filter.Resource != nil {
		conditions = append(conditions, fmt.Sprintf("resource = $%d", idx))
		args = append(args, string(*filter.Resource))
		idx++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", idx))
		args = append(args, string(*filter.Status))
		idx++
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := fmt.Sprintf(`
		SELECT id, timestamp, action, resource, actor_id, team_id, status,
			COALESCE(request_id, ''), COALESCE(ip_address, ''), COALESCE(message, ''), metadata
		FROM audit_logs
		WHERE %s
		ORDER BY timestamp DESC
		LIMIT $%d OFFSET $%d
	`, strings.Join(conditions, " AND "), idx, idx+1)
	args = append(args, limit, filter.Offset)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		event := &Event{}
		var action, resource, status string
		var metadataJSON []byte
		err := rows.Scan(&event.ID, &event.Timestamp, &action, &resource,
			&event.ActorID, &event.TeamID, &status,
			&event.RequestID, &event.IPAddress, &event.Message, &metadataJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		event.Action = rbac.Action(action)
		event.Resource = rbac.Resource(resource)
		event.Status = Status(status)
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &event.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Close releases the logger. The shared database handle is owned by the
// caller and is not closed here.
func (d *DBLogger) Close() error { return nil }

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
