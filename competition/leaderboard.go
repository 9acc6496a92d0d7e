package competition

import (
	"sort"

	"github.com/fitfun/competition-system/models"
)

// Entry is one leaderboard row.
type Entry struct {
	UserID          int     `json:"user_id"`
	Score           float64 `json:"score"`
	Rank            int     `json:"rank"`
	HasMeasurements bool    `json:"has_measurements"`
}

// ComputeLeaderboard ranks every participant of the competition.
// Participants with at least two measurements are scored and sorted by
// score descending; the sort is stable, so exact ties keep participant
// order. Participants with fewer than two measurements are listed after
// them in their original order with HasMeasurements=false and a zero
// score. Ranks are positions over the combined list, starting at 1.
//
// measurementsByUser must hold each participant's measurements for this
// competition ordered by capture time ascending.
func ComputeLeaderboard(c *models.Competition, measurementsByUser map[int][]models.Measurement) []Entry {
	scored := make([]Entry, 0, len(c.Participants))
	unscored := make([]Entry, 0)

	for _, userID := range c.Participants {
		series := measurementsByUser[userID]
		if len(series) < 2 {
			unscored = append(unscored, Entry{UserID: userID})
			continue
		}
		first := series[0]
		last := series[len(series)-1]
		scored = append(scored, Entry{
			UserID:          userID,
			Score:           Score(c.Method, &first, &last),
			HasMeasurements: true,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	entries := append(scored, unscored...)
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// ComputeWinners returns the winner prefix of the measuring-only
// ranking according to the competition's winner distribution, alongside
// the full ranked results (which still list non-measuring participants
// for display). Participants with fewer than two measurements never
// appear among the winners.
func ComputeWinners(c *models.Competition, measurementsByUser map[int][]models.Measurement) (winners []Entry, all []Entry) {
	all = ComputeLeaderboard(c, measurementsByUser)

	measuring := make([]Entry, 0, len(all))
	for _, e := range all {
		if e.HasMeasurements {
			measuring = append(measuring, e)
		}
	}

	n := c.WinnerDistribution.TopCount()
	if n > len(measuring) {
		n = len(measuring)
	}
	winners = measuring[:n]
	return winners, all
}
