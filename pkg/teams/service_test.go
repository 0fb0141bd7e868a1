package teams

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*PostgresService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresService(db), mock
}

func TestCreateTeam_CreatorBecomesOwner(t *testing.T) {
	service, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO teams").
		WithArgs("acme", "Acme Corp", []byte(`{}`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(1, time.Now(), time.Now()))
	mock.ExpectExec("INSERT INTO team_members").
		WithArgs(int64(1), int64(42), "owner").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	team, err := service.CreateTeam(context.Background(), CreateTeamRequest{Name: "Acme Corp", Slug: "acme"}, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), team.ID)
	assert.Equal(t, "acme", team.Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTeam_GeneratesSlugFromName(t *testing.T) {
	service, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO teams").
		WithArgs("acme-corp", "Acme Corp!", []byte(`{}`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(2, time.Now(), time.Now()))
	mock.ExpectExec("INSERT INTO team_members").
		WithArgs(int64(2), int64(7), "owner").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	team, err := service.CreateTeam(context.Background(), CreateTeamRequest{Name: "Acme Corp!"}, 7)
	require.NoError(t, err)
	assert.Equal(t, "acme-corp", team.Slug)
}

func TestCreateTeam_RejectsNumericSlug(t *testing.T) {
	service, mock := newTestService(t)

	// A slug of "42" would be indistinguishable from the team id 42 in
	// route paths, so it could bind requests to the wrong team.
	_, err := service.CreateTeam(context.Background(), CreateTeamRequest{Name: "Answer", Slug: "42"}, 1)
	assert.ErrorIs(t, err, ErrInvalidSlug)
	assert.NoError(t, mock.ExpectationsWereMet(), "no SQL should run for a rejected slug")
}

func TestCreateTeam_RejectsSlugOutsideAlphabet(t *testing.T) {
	service, mock := newTestService(t)

	for _, slug := range []string{"Acme", "acme corp", "acme!", "équipe"} {
		_, err := service.CreateTeam(context.Background(), CreateTeamRequest{Name: "Acme", Slug: slug}, 1)
		assert.ErrorIs(t, err, ErrInvalidSlug, "slug %q", slug)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTeam_DuplicateSlug(t *testing.T) {
	service, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO teams").
		WithArgs("acme", "Acme", []byte(`{}`)).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := service.CreateTeam(context.Background(), CreateTeamRequest{Name: "Acme", Slug: "acme"}, 42)
	assert.ErrorIs(t, err, ErrSlugTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTeam_RollsBackOnMembershipFailure(t *testing.T) {
	service, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO teams").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(1, time.Now(), time.Now()))
	mock.ExpectExec("INSERT INTO team_members").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := service.CreateTeam(context.Background(), CreateTeamRequest{Name: "Acme", Slug: "acme"}, 42)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTeam_NotFound(t *testing.T) {
	service, mock := newTestService(t)

	mock.ExpectQuery("SELECT id, slug, name, features, created_at, updated_at").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug", "name", "features", "created_at", "updated_at"}))

	_, err := service.GetTeam(context.Background(), 99)
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestGetTeamBySlug(t *testing.T) {
	service, mock := newTestService(t)

	mock.ExpectQuery("SELECT id, slug, name, features, created_at, updated_at\\s+FROM teams\\s+WHERE slug").
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug", "name", "features", "created_at", "updated_at"}).
			AddRow(1, "acme", "Acme", []byte(`{"sso":true}`), time.Now(), time.Now()))

	team, err := service.GetTeamBySlug(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, int64(1), team.ID)
	assert.True(t, team.Features["sso"])
}

func TestListTeams_OnlyMemberTeams(t *testing.T) {
	service, mock := newTestService(t)

	mock.ExpectQuery("JOIN team_members tm ON tm.team_id = t.id").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug", "name", "features", "created_at", "updated_at"}).
			AddRow(1, "acme", "Acme", []byte(`{}`), time.Now(), time.Now()).
			AddRow(2, "globex", "Globex", []byte(`{}`), time.Now(), time.Now()))

	teams, err := service.ListTeams(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "acme", teams[0].Slug)
	assert.Equal(t, "globex", teams[1].Slug)
}

func TestUpdateTeam(t *testing.T) {
	service, mock := newTestService(t)

	name := "New Name"
	mock.ExpectExec("UPDATE teams SET updated_at = NOW\\(\\), name = \\$1 WHERE id = \\$2").
		WithArgs("New Name", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := service.UpdateTeam(context.Background(), 1, UpdateTeamRequest{Name: &name})
	assert.NoError(t, err)
}

func TestUpdateTeam_NotFound(t *testing.T) {
	service, mock := newTestService(t)

	name := "New Name"
	mock.ExpectExec("UPDATE teams").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := service.UpdateTeam(context.Background(), 99, UpdateTeamRequest{Name: &name})
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

type recordingInvalidator struct {
	mu    sync.Mutex
	pairs [][2]int64
}

func (r *recordingInvalidator) InvalidateMembership(teamID, userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairs = append(r.pairs, [2]int64{teamID, userID})
}

func TestDeleteTeam_InvalidatesAllMembers(t *testing.T) {
	service, mock := newTestService(t)
	inv := &recordingInvalidator{}
	service.SetMembershipInvalidator(inv)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM team_members WHERE team_id = $1")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(10).AddRow(11))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teams WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := service.DeleteTeam(context.Background(), 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, [][2]int64{{1, 10}, {1, 11}}, inv.pairs)
}

func TestDeleteTeam_NotFound(t *testing.T) {
	service, mock := newTestService(t)

	mock.ExpectQuery("SELECT user_id FROM team_members").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
	mock.ExpectExec("DELETE FROM teams").
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := service.DeleteTeam(context.Background(), 99)
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Acme Corp", "acme-corp"},
		{"  Spaced  Out  ", "spaced--out"},
		{"Weird!@#Chars", "weirdchars"},
		{"-leading-trailing-", "leading-trailing"},
		{"2024", "team-2024"}, // all-digit slugs would collide with id routing
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, generateSlug(tt.name), "input %q", tt.name)
	}
}
