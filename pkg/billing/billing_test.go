package billing

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewkit/crewkit/pkg/access"
	"github.com/crewkit/crewkit/pkg/scoped"
)

func testScope(t *testing.T, teamID int64) scoped.Scope {
	t.Helper()
	scope, err := scoped.For(&access.Decision{Allowed: true, TeamID: teamID})
	require.NoError(t, err)
	return scope
}

func TestGet_ExistingRow(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT team_id, plan, billing_email, seat_limit, updated_at")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"team_id", "plan", "billing_email", "seat_limit", "updated_at"}).
			AddRow(7, "pro", "billing@acme.test", 25, time.Now()))

	settings, err := NewStore(db).Get(context.Background(), testScope(t, 7))
	require.NoError(t, err)

	assert.Equal(t, int64(7), settings.TeamID)
	assert.Equal(t, PlanPro, settings.Plan)
	assert.Equal(t, "billing@acme.test", settings.BillingEmail)
	assert.Equal(t, 25, settings.SeatLimit)
}

func TestGet_DefaultsToFreePlan(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT team_id, plan, billing_email, seat_limit, updated_at")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"team_id", "plan", "billing_email", "seat_limit", "updated_at"}))

	settings, err := NewStore(db).Get(context.Background(), testScope(t, 7))
	require.NoError(t, err)

	assert.Equal(t, int64(7), settings.TeamID)
	assert.Equal(t, PlanFree, settings.Plan)
	assert.Zero(t, settings.SeatLimit)
}

func TestUpdate_UpsertsSettings(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT team_id, plan, billing_email, seat_limit, updated_at")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"team_id", "plan", "billing_email", "seat_limit", "updated_at"}))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO billing_settings")).
		WithArgs(int64(7), "pro", "billing@acme.test", 10).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))

	plan := PlanPro
	email := "billing@acme.test"
	seats := 10
	settings, err := NewStore(db).Update(context.Background(), testScope(t, 7), UpdateSettingsRequest{
		Plan:         &plan,
		BillingEmail: &email,
		SeatLimit:    &seats,
	})
	require.NoError(t, err)

	assert.Equal(t, PlanPro, settings.Plan)
	assert.Equal(t, 10, settings.SeatLimit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_RejectsUnknownPlan(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	plan := PlanTier("platinum")
	_, err = NewStore(db).Update(context.Background(), testScope(t, 7), UpdateSettingsRequest{Plan: &plan})
	assert.Error(t, err)
}

func TestPlanTierValid(t *testing.T) {
	assert.True(t, PlanFree.Valid())
	assert.True(t, PlanPro.Valid())
	assert.True(t, PlanEnterprise.Valid())
	assert.False(t, PlanTier("platinum").Valid())
}
