package competition_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fitfun/competition-system/competition"
	"github.com/fitfun/competition-system/models"
)

func newCompetition(start time.Time, durationDays int) *models.Competition {
	return &models.Competition{
		ID:           1,
		Name:         "Summer Weight Loss Challenge",
		StartDate:    start,
		DurationDays: durationDays,
		Status:       models.StatusUpcoming,
	}
}

func TestResolveStatus_Timeline(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newCompetition(now.Add(7*24*time.Hour), 84)

	assert.Equal(t, models.StatusUpcoming, competition.ResolveStatus(c, now))
	assert.Equal(t, models.StatusActive, competition.ResolveStatus(c, now.Add(10*24*time.Hour)))
	assert.Equal(t, models.StatusCompleted, competition.ResolveStatus(c, now.Add(95*24*time.Hour)))
}

func TestResolveStatus_Boundaries(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c := newCompetition(start, 30)
	end := start.Add(30 * 24 * time.Hour)

	assert.Equal(t, models.StatusUpcoming, competition.ResolveStatus(c, start.Add(-time.Second)))
	assert.Equal(t, models.StatusActive, competition.ResolveStatus(c, start))
	assert.Equal(t, models.StatusActive, competition.ResolveStatus(c, end.Add(-time.Second)))
	assert.Equal(t, models.StatusGracePeriod, competition.ResolveStatus(c, end))
	assert.Equal(t, models.StatusGracePeriod, competition.ResolveStatus(c, end.Add(24*time.Hour-time.Second)))
	assert.Equal(t, models.StatusCompleted, competition.ResolveStatus(c, end.Add(24*time.Hour)))
}

func TestResolveStatus_Deterministic(t *testing.T) {
	start := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	c := newCompetition(start, 14)

	for _, offset := range []time.Duration{-time.Hour, time.Hour, 13 * 24 * time.Hour, 15 * 24 * time.Hour} {
		now := start.Add(offset)
		first := competition.ResolveStatus(c, now)
		second := competition.ResolveStatus(c, now)
		assert.Equal(t, first, second)
	}
}

func TestResolveStatus_CanceledIsAbsorbing(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c := newCompetition(start, 30)
	c.Status = models.StatusCanceled

	nows := []time.Time{
		start.Add(-48 * time.Hour),
		start.Add(24 * time.Hour),
		start.Add(30 * 24 * time.Hour),
		start.Add(400 * 24 * time.Hour),
	}
	for _, now := range nows {
		assert.Equal(t, models.StatusCanceled, competition.ResolveStatus(c, now))
	}
}
