package services

import (
	"context"
	"fmt"

	"github.com/fitfun/competition-system/models"
	"github.com/fitfun/competition-system/repositories"
	"github.com/fitfun/competition-system/storage"
)

// populateMembers fills a competition's participant and join-request id
// lists from the membership table, preserving join order.
func populateMembers(ctx context.Context, memberRepo repositories.MemberRepository, c *models.Competition) error {
	members, err := memberRepo.ListByCompetition(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("failed to load members of competition %d: %w", c.ID, err)
	}
	c.Participants = make([]int, 0, len(members))
	c.JoinRequests = make([]int, 0)
	for _, m := range members {
		switch m.Status {
		case models.MemberParticipant:
			c.Participants = append(c.Participants, m.UserID)
		case models.MemberPending:
			c.JoinRequests = append(c.JoinRequests, m.UserID)
		}
	}
	return nil
}

// groupMeasurementsByUser buckets a competition's measurements per
// owner, keeping the repository's taken_at ordering. Anonymized rows
// are skipped: their former owner left the platform.
func groupMeasurementsByUser(measurements []models.Measurement) map[int][]models.Measurement {
	byUser := make(map[int][]models.Measurement)
	for _, m := range measurements {
		if m.UserID == nil {
			continue
		}
		byUser[*m.UserID] = append(byUser[*m.UserID], m)
	}
	return byUser
}

func ordinal(n int) string {
	switch n {
	case 1:
		return "1st"
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	default:
		return fmt.Sprintf("%dth", n)
	}
}

// sanitizeUser strips fields that must never reach a response body.
func sanitizeUser(user *models.User) {
	if user == nil {
		return
	}
	user.PasswordHash = ""
}

func populateUserPhotoURLs(user *models.User, uploader storage.FileUploader) {
	if user == nil || uploader == nil {
		return
	}
	if user.ProfilePhotoKey != nil && *user.ProfilePhotoKey != "" {
		if url := uploader.GetPublicURL(*user.ProfilePhotoKey); url != "" {
			user.ProfilePhotoURL = &url
		}
	}
	if user.BeforePhotoKey != nil && *user.BeforePhotoKey != "" {
		if url := uploader.GetPublicURL(*user.BeforePhotoKey); url != "" {
			user.BeforePhotoURL = &url
		}
	}
	if user.AfterPhotoKey != nil && *user.AfterPhotoKey != "" {
		if url := uploader.GetPublicURL(*user.AfterPhotoKey); url != "" {
			user.AfterPhotoURL = &url
		}
	}
}
