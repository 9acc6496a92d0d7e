package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitfun/competition-system/models"
	"github.com/fitfun/competition-system/repositories"
)

type adminFixture struct {
	*lifecycleFixture
	service AdminService
}

func newAdminFixture(t *testing.T, now time.Time) *adminFixture {
	t.Helper()
	lf := newLifecycleFixture(t, now)
	return &adminFixture{
		lifecycleFixture: lf,
		service:          NewAdminService(lf.users, lf.competitions, lf.measurements, nil),
	}
}

func TestAdminListUsersStripsCredentials(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	f := newAdminFixture(t, now)

	f.users.put(&models.User{Email: "a@example.com", PasswordHash: "$2a$12$secret", Role: models.RoleUser, DisplayName: "A"})
	f.users.put(&models.User{Email: "b@example.com", PasswordHash: "$2a$12$secret", Role: models.RoleAdmin, DisplayName: "B"})

	users, err := f.service.ListUsers(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.Empty(t, u.PasswordHash)
	}
}

func TestAdminDeleteCompetition(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	f := newAdminFixture(t, now)

	c := f.addCompetition(&models.Competition{
		Name:         "To Be Removed",
		CreatorID:    1,
		StartDate:    now.Add(24 * time.Hour),
		DurationDays: 30,
		Method:       models.MethodAbsolute,
		Status:       models.StatusUpcoming,
	})

	require.NoError(t, f.service.DeleteCompetition(context.Background(), c.ID))

	_, err := f.competitions.GetByID(context.Background(), c.ID)
	assert.ErrorIs(t, err, repositories.ErrCompetitionNotFound)

	err = f.service.DeleteCompetition(context.Background(), c.ID)
	assert.ErrorIs(t, err, ErrCompetitionNotFound)
}

func TestAdminStats(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	f := newAdminFixture(t, now)

	f.users.put(&models.User{Email: "a@example.com", Role: models.RoleUser, DisplayName: "A"})
	f.addCompetition(&models.Competition{
		Name:         "Running",
		CreatorID:    1,
		StartDate:    now.Add(-24 * time.Hour),
		DurationDays: 30,
		Method:       models.MethodAbsolute,
		Status:       models.StatusActive,
	})
	f.addCompetition(&models.Competition{
		Name:         "Later",
		CreatorID:    1,
		StartDate:    now.Add(24 * time.Hour),
		DurationDays: 30,
		Method:       models.MethodAbsolute,
		Status:       models.StatusUpcoming,
	})
	f.addWeights(1, 1, now.Add(-24*time.Hour), 90, 89)

	stats, err := f.service.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.UsersTotal)
	assert.Equal(t, 2, stats.CompetitionsTotal)
	assert.Equal(t, 1, stats.CompetitionsActive)
	assert.Equal(t, 2, stats.MeasurementsTotal)
}
