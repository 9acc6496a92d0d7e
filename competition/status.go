// Package competition holds the pure lifecycle and scoring rules of a
// weight-loss competition: status resolution from dates, the
// measurement submission window, per-method scoring and the
// leaderboard/winner computation. Nothing in here touches storage or
// the clock; callers pass records and an explicit "now".
package competition

import (
	"time"

	"github.com/fitfun/competition-system/models"
)

// ResolveStatus computes the lifecycle status of a competition at the
// given instant. An explicitly canceled competition stays canceled no
// matter what the dates say. The function is pure; detecting a *change*
// against the persisted status and firing side effects is the
// orchestrator's job.
func ResolveStatus(c *models.Competition, now time.Time) models.CompetitionStatus {
	if c.Status == models.StatusCanceled {
		return models.StatusCanceled
	}

	start := c.StartDate
	end := c.EndDate()
	graceEnd := c.GraceEnd()

	switch {
	case now.Before(start):
		return models.StatusUpcoming
	case now.Before(end):
		return models.StatusActive
	case now.Before(graceEnd):
		return models.StatusGracePeriod
	default:
		return models.StatusCompleted
	}
}
