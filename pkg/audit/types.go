package audit

import (
	"encoding/json"
	"time"

	"github.com/crewkit/crewkit/pkg/rbac"
)

// Status represents the outcome recorded with an event.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusDenied  Status = "denied"
)

// Event is the audit descriptor emitted for state-changing operations and
// denied decisions: who did what, on which resource, in which team, when.
type Event struct {
	ID        int64         `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Action    rbac.Action   `json:"action"`
	Resource  rbac.Resource `json:"resource"`
	ActorID   int64         `json:"actor_id"`
	TeamID    int64         `json:"team_id"`
	Status    Status        `json:"status"`

	// Request context
	RequestID string `json:"request_id,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`

	// Additional details
	Message  string                 `json:"message,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ToJSON converts the event to JSON.
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// SearchFilter represents filters for reading audit logs. The team id is
// not part of the filter: reads are always scope-bound.
type SearchFilter struct {
	StartTime *time.Time
	EndTime   *time.Time
	ActorID   *int64
	Resource  *rbac.Resource
	Status    *Status
	Limit     int
	Offset    int
}
