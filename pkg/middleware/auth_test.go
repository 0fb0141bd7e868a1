package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewkit/crewkit/pkg/auth"
	"github.com/crewkit/crewkit/pkg/contextkeys"
)

func newSessionStore(t *testing.T) (*auth.SessionStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS sessions").WillReturnResult(sqlmock.NewResult(0, 0))
	store, err := auth.NewSessionStore(db)
	require.NoError(t, err)
	return store, mock
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	store, mock := newSessionStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, token_hash, expires_at, created_at")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "created_at"}).
			AddRow(1, 42, "hash", time.Now().Add(time.Hour), time.Now()))

	var gotAuth *auth.AuthContext
	var gotUserID string
	handler := NewAuthMiddleware(store, false).Handler(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = GetAuthContext(r)
			gotUserID = contextkeys.GetUserID(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest("GET", "/api/v1/teams", nil)
	req.Header.Set("Authorization", "Bearer cks_sometoken")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, gotAuth)
	assert.Equal(t, int64(42), gotAuth.UserID)
	assert.Equal(t, "42", gotUserID)
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	store, _ := newSessionStore(t)

	handler := NewAuthMiddleware(store, false).Handler(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be reached")
		}))

	req := httptest.NewRequest("GET", "/api/v1/teams", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	store, _ := newSessionStore(t)

	handler := NewAuthMiddleware(store, false).Handler(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be reached")
		}))

	req := httptest.NewRequest("GET", "/api/v1/teams", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	store, mock := newSessionStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, token_hash, expires_at, created_at")).
		WillReturnError(context.DeadlineExceeded)

	handler := NewAuthMiddleware(store, false).Handler(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be reached")
		}))

	req := httptest.NewRequest("GET", "/api/v1/teams", nil)
	req.Header.Set("Authorization", "Bearer cks_expired")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_OptionalAllowsAnonymous(t *testing.T) {
	store, _ := newSessionStore(t)

	handler := NewAuthMiddleware(store, true).Handler(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Nil(t, GetAuthContext(r))
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest("GET", "/api/v1/teams", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
