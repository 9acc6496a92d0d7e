package competition

import (
	"time"

	"github.com/fitfun/competition-system/models"
)

// CanMutateMeasurement reports whether a measurement tied to the given
// competition may still be created, edited or deleted at the given
// instant. The window closes 24 hours after the competition's end date,
// the same boundary that moves the status out of grace_period.
// Standalone measurements (nil competition) carry no window at all.
func CanMutateMeasurement(c *models.Competition, now time.Time) bool {
	if c == nil {
		return true
	}
	return now.Before(c.GraceEnd())
}

// CanSubmitMeasurement additionally requires the competition to be
// running: new entries are accepted only while the status is active or
// grace_period.
func CanSubmitMeasurement(c *models.Competition, now time.Time) bool {
	if c == nil {
		return true
	}
	status := ResolveStatus(c, now)
	return status == models.StatusActive || status == models.StatusGracePeriod
}

// MeasurementFrequency returns the suggested number of days between
// measurements: short competitions get four checkpoints, longer ones go
// weekly.
func MeasurementFrequency(durationDays int) int {
	if durationDays < 30 {
		freq := durationDays / 4
		if durationDays%4 != 0 {
			freq++
		}
		return freq
	}
	return 7
}

// RequiredMeasurementCount is the number of entries a participant is
// expected to log over the whole competition at the suggested cadence.
func RequiredMeasurementCount(durationDays int) int {
	freq := MeasurementFrequency(durationDays)
	if freq <= 0 {
		return 0
	}
	count := durationDays / freq
	if durationDays%freq != 0 {
		count++
	}
	return count
}
