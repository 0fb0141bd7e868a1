package audit

import (
	"context"
	"time"

	"github.com/crewkit/crewkit/pkg/async"
	"github.com/crewkit/crewkit/pkg/rbac"
)

// Logger is the interface audit sinks implement.
type Logger interface {
	// Log records an audit event. Implementations must not block the
	// caller's request path for long; slow sinks should buffer.
	Log(ctx context.Context, event *Event) error

	// Close flushes and releases the sink.
	Close() error
}

// nopLogger discards events. Used when auditing is disabled.
type nopLogger struct{}

// NewNopLogger creates a logger that discards all events.
func NewNopLogger() Logger {
	return &nopLogger{}
}

func (n *nopLogger) Log(ctx context.Context, event *Event) error { return nil }
func (n *nopLogger) Close() error                                { return nil }

// Emit fills in the timestamp and writes the event in a background
// goroutine. Audit failures are reported by the sink itself and never
// fail the operation being audited.
func Emit(logger Logger, event *Event) {
	if logger == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	async.SafeGo(context.Background(), 5*time.Second, "audit emission", func(ctx context.Context) error {
		return logger.Log(ctx, event)
	})
}

// NewEvent builds an event for an operation outcome.
func NewEvent(resource rbac.Resource, action rbac.Action, actorID, teamID int64, status Status) *Event {
	return &Event{
		Timestamp: time.Now().UTC(),
		Resource:  resource,
		Action:    action,
		ActorID:   actorID,
		TeamID:    teamID,
		Status:    status,
	}
}
