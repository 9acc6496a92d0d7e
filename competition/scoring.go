package competition

import (
	"math"

	"github.com/fitfun/competition-system/models"
)

// round1 and round2 implement the half-up rounding the platform
// displays and persists: one decimal for absolute/bmi/bodyfat scores,
// two for percentages. The rounding is part of the scoring contract,
// not floating-point hygiene.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Score maps a participant's first and last measurements to their
// competition score under the given method. Positive scores mean
// improvement (weight lost, BMI dropped, body fat dropped).
//
// Callers must not invoke Score for participants with fewer than two
// measurements; such participants are excluded from ranking rather
// than scored zero.
func Score(method models.MeasurementMethod, first, last *models.Measurement) float64 {
	switch method {
	case models.MethodPercentage:
		if first.WeightKg == 0 {
			return 0
		}
		return round2((first.WeightKg - last.WeightKg) / first.WeightKg * 100)
	case models.MethodBMI:
		if first.BMI == nil || last.BMI == nil {
			return 0
		}
		return round1(*first.BMI - *last.BMI)
	case models.MethodBodyFat:
		if first.BodyFatPercentage == nil || last.BodyFatPercentage == nil {
			return 0
		}
		return round1(*first.BodyFatPercentage - *last.BodyFatPercentage)
	default: // absolute
		return round1(first.WeightKg - last.WeightKg)
	}
}
