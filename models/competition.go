package models

import "time"

// CompetitionStatus represents the lifecycle states, matching the ENUM in the DB.
type CompetitionStatus string

const (
	StatusUpcoming    CompetitionStatus = "upcoming"
	StatusActive      CompetitionStatus = "active"
	StatusGracePeriod CompetitionStatus = "grace_period"
	StatusCompleted   CompetitionStatus = "completed"
	StatusCanceled    CompetitionStatus = "canceled"
)

// JoinMode controls whether joining is immediate or needs creator approval.
type JoinMode string

const (
	JoinModeFree     JoinMode = "free"
	JoinModeApproval JoinMode = "approval"
)

// MeasurementMethod is the scoring basis of a competition.
type MeasurementMethod string

const (
	MethodAbsolute   MeasurementMethod = "absolute"
	MethodPercentage MeasurementMethod = "percentage"
	MethodBMI        MeasurementMethod = "bmi"
	MethodBodyFat    MeasurementMethod = "bodyfat"
)

// WinnerDistribution says how many ranked participants receive winner status.
type WinnerDistribution string

const (
	WinnersTop1 WinnerDistribution = "1st"
	WinnersTop2 WinnerDistribution = "1st+2nd"
	WinnersTop3 WinnerDistribution = "1st+2nd+3rd"
)

// TopCount returns the number of winner slots for the distribution.
func (d WinnerDistribution) TopCount() int {
	switch d {
	case WinnersTop2:
		return 2
	case WinnersTop3:
		return 3
	default:
		return 1
	}
}

// Competition represents a weight-loss challenge.
type Competition struct {
	ID                 int                `json:"id" db:"id"`
	Name               string             `json:"name" db:"name"`
	Description        *string            `json:"description,omitempty" db:"description"`
	CreatorID          int                `json:"creator_id" db:"creator_id"`
	IsPublic           bool               `json:"is_public" db:"is_public"`
	JoinMode           JoinMode           `json:"join_mode" db:"join_mode"`
	MaxParticipants    *int               `json:"max_participants,omitempty" db:"max_participants"`
	StartDate          time.Time          `json:"start_date" db:"start_date"`
	DurationDays       int                `json:"duration" db:"duration_days"`
	Method             MeasurementMethod  `json:"measurement_method" db:"measurement_method"`
	PrizeDescription   *string            `json:"prize_description,omitempty" db:"prize_description"`
	WinnerDistribution WinnerDistribution `json:"winner_distribution" db:"winner_distribution"`
	Status             CompetitionStatus  `json:"status" db:"status"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`

	// Populated by the service layer, not mapped directly.
	Participants []int    `json:"participants,omitempty" db:"-"`
	JoinRequests []int    `json:"join_requests,omitempty" db:"-"`
	Creator      *User    `json:"creator,omitempty" db:"-"`
	Winners      []Result `json:"winners,omitempty" db:"-"`
	Results      []Result `json:"results,omitempty" db:"-"`
}

// Result is one persisted row of a finished competition's ranking.
type Result struct {
	UserID          int     `json:"user_id" db:"user_id"`
	Score           float64 `json:"score" db:"score"`
	Rank            int     `json:"rank" db:"rank"`
	HasMeasurements bool    `json:"has_measurements" db:"has_measurements"`
	IsWinner        bool    `json:"is_winner" db:"is_winner"`
}

// EndDate is the computed end of the competition window.
func (c *Competition) EndDate() time.Time {
	return c.StartDate.Add(time.Duration(c.DurationDays) * 24 * time.Hour)
}

// GraceEnd is the end of the 24h grace window after EndDate.
func (c *Competition) GraceEnd() time.Time {
	return c.EndDate().Add(24 * time.Hour)
}

// IsParticipant reports whether the given user is in the participant list.
func (c *Competition) IsParticipant(userID int) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// HasJoinRequest reports whether the given user has a pending join request.
func (c *Competition) HasJoinRequest(userID int) bool {
	for _, id := range c.JoinRequests {
		if id == userID {
			return true
		}
	}
	return false
}

// MemberStatus distinguishes approved participants from pending join requests.
type MemberStatus string

const (
	MemberParticipant MemberStatus = "participant"
	MemberPending     MemberStatus = "pending"
)

// CompetitionMember is one row of the competition membership table.
type CompetitionMember struct {
	ID            int          `json:"id" db:"id"`
	CompetitionID int          `json:"competition_id" db:"competition_id"`
	UserID        int          `json:"user_id" db:"user_id"`
	Status        MemberStatus `json:"status" db:"status"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
}
