package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewkit/crewkit/pkg/rbac"
)

type recordingLogger struct {
	events []*Event
	err    error
}

func (r *recordingLogger) Log(ctx context.Context, event *Event) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recordingLogger) Close() error { return nil }

func TestFileLoggerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewFileLogger(FileLoggerConfig{BasePath: dir})
	require.NoError(t, err)
	defer logger.Close()

	event := NewEvent(rbac.ResourceWebhooks, rbac.ActionCreate, 42, 7, StatusSuccess)
	event.Message = "endpoint registered"
	require.NoError(t, logger.Log(context.Background(), event))
	require.NoError(t, logger.Close())

	file, err := os.Open(filepath.Join(dir, "audit.log"))
	require.NoError(t, err)
	defer file.Close()

	scanner := bufio.NewScanner(file)
	require.True(t, scanner.Scan())

	var decoded Event
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &decoded))
	assert.Equal(t, rbac.ResourceWebhooks, decoded.Resource)
	assert.Equal(t, rbac.ActionCreate, decoded.Action)
	assert.Equal(t, int64(42), decoded.ActorID)
	assert.Equal(t, int64(7), decoded.TeamID)
	assert.Equal(t, StatusSuccess, decoded.Status)
	assert.Equal(t, "endpoint registered", decoded.Message)
}

func TestMultiLoggerFansOut(t *testing.T) {
	first := &recordingLogger{}
	second := &recordingLogger{}
	multi := NewMultiLogger(first, second)

	event := NewEvent(rbac.ResourceMembers, rbac.ActionRemove, 1, 2, StatusSuccess)
	require.NoError(t, multi.Log(context.Background(), event))

	assert.Len(t, first.events, 1)
	assert.Len(t, second.events, 1)
}

func TestMultiLoggerContinuesPastFailure(t *testing.T) {
	failing := &recordingLogger{err: errors.New("sink down")}
	healthy := &recordingLogger{}
	multi := NewMultiLogger(failing, healthy)

	event := NewEvent(rbac.ResourceAPIKeys, rbac.ActionDelete, 1, 2, StatusSuccess)
	err := multi.Log(context.Background(), event)

	assert.EqualError(t, err, "sink down")
	assert.Len(t, healthy.events, 1, "remaining sinks still receive the event")
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNopLogger()
	assert.NoError(t, logger.Log(context.Background(), &Event{}))
	assert.NoError(t, logger.Close())
}
