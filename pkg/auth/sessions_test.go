package auth

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*SessionStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS sessions").WillReturnResult(sqlmock.NewResult(0, 0))
	store, err := NewSessionStore(db)
	require.NoError(t, err)
	return store, mock
}

func TestNewSessionStore_RequiresDB(t *testing.T) {
	_, err := NewSessionStore(nil)
	assert.Error(t, err)
}

func TestCreate_ReturnsOneTimeToken(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery("INSERT INTO sessions").
		WithArgs(int64(42), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Now()))

	session, token, err := store.Create(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "cks_"))
	assert.Equal(t, hashToken(token), session.TokenHash)
	assert.WithinDuration(t, time.Now().Add(DefaultSessionTTL), session.ExpiresAt, time.Minute)
}

func TestValidate(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery("SELECT id, user_id, token_hash, expires_at, created_at").
		WithArgs(hashToken("cks_good")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "created_at"}).
			AddRow(1, 42, hashToken("cks_good"), time.Now().Add(time.Hour), time.Now()))

	session, err := store.Validate(context.Background(), "cks_good")
	require.NoError(t, err)
	assert.Equal(t, int64(42), session.UserID)
}

func TestValidate_UnknownToken(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery("SELECT id, user_id, token_hash, expires_at, created_at").
		WithArgs(hashToken("cks_bad")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.Validate(context.Background(), "cks_bad")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestRevoke(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE token_hash = $1")).
		WithArgs(hashToken("cks_gone")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Revoke(context.Background(), "cks_gone")
	assert.NoError(t, err)
}
