package models

import "time"

// NotificationType distinguishes the events the platform emits.
type NotificationType string

const (
	NotificationCompetitionStarted  NotificationType = "competition_started"
	NotificationGracePeriod         NotificationType = "grace_period"
	NotificationWinner              NotificationType = "winner"
	NotificationResultsPublished    NotificationType = "results_published"
	NotificationJoinRequest         NotificationType = "join_request"
	NotificationJoinApproved        NotificationType = "join_approved"
	NotificationJoinRejected        NotificationType = "join_rejected"
	NotificationCompetitionCanceled NotificationType = "competition_canceled"
	NotificationJoined              NotificationType = "joined"
)

type Notification struct {
	ID            int              `json:"id" db:"id"`
	UserID        int              `json:"user_id" db:"user_id"`
	Type          NotificationType `json:"type" db:"type"`
	Title         string           `json:"title" db:"title"`
	Message       string           `json:"message" db:"message"`
	CompetitionID *int             `json:"competition_id,omitempty" db:"competition_id"`
	Read          bool             `json:"read" db:"read"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
}
