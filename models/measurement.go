package models

import "time"

// Measurement is a single body measurement. CompetitionID is nil for
// standalone tracking entries, which are not bound to any submission
// window. UserID becomes nil when the owning account is deleted and the
// row is anonymized instead of removed.
type Measurement struct {
	ID                   int        `json:"id" db:"id"`
	UserID               *int       `json:"user_id,omitempty" db:"user_id"`
	CompetitionID        *int       `json:"competition_id,omitempty" db:"competition_id"`
	WeightKg             float64    `json:"weight" db:"weight_kg"`
	BMI                  *float64   `json:"bmi,omitempty" db:"bmi"`
	BodyFatPercentage    *float64   `json:"body_fat_percentage,omitempty" db:"body_fat_percentage"`
	MuscleMassPercentage *float64   `json:"muscle_mass_percentage,omitempty" db:"muscle_mass_percentage"`
	TakenAt              time.Time  `json:"taken_at" db:"taken_at"`
	EditedAt             *time.Time `json:"edited_at,omitempty" db:"edited_at"`
	Anonymized           bool       `json:"anonymized" db:"anonymized"`
}

// OwnedBy reports whether the measurement belongs to the given user.
// Anonymized rows belong to nobody.
func (m *Measurement) OwnedBy(userID int) bool {
	return m.UserID != nil && *m.UserID == userID
}
