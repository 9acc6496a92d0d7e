package models

import "time"

// TestimonialStatus follows the moderation flow: submitted entries stay
// pending until an admin approves or hides them.
type TestimonialStatus string

const (
	TestimonialPending  TestimonialStatus = "pending"
	TestimonialApproved TestimonialStatus = "approved"
	TestimonialHidden   TestimonialStatus = "hidden"
)

type Testimonial struct {
	ID            int               `json:"id" db:"id"`
	UserID        int               `json:"user_id" db:"user_id"`
	CompetitionID int               `json:"competition_id" db:"competition_id"`
	Text          string            `json:"text" db:"text"`
	WeightLostKg  *float64          `json:"weight_lost,omitempty" db:"weight_lost_kg"`
	Status        TestimonialStatus `json:"status" db:"status"`
	ApprovedBy    *int              `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt    *time.Time        `json:"approved_at,omitempty" db:"approved_at"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`

	// Populated for display, not mapped directly.
	UserDisplayName *string `json:"user_display_name,omitempty" db:"-"`
	CompetitionName *string `json:"competition_name,omitempty" db:"-"`
}
