package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fitfun/competition-system/models"
	"github.com/fitfun/competition-system/repositories"
)

// JoinResult tells the caller whether the user became a participant
// immediately or was queued for creator approval.
type JoinResult struct {
	RequiresApproval bool `json:"requires_approval"`
}

// MembershipService owns the join/approve/reject workflows and the
// competition side of the account-deletion cascade.
type MembershipService interface {
	Join(ctx context.Context, competitionID, userID int) (*JoinResult, error)
	ApproveJoinRequest(ctx context.Context, competitionID, requesterID, userID int) error
	RejectJoinRequest(ctx context.Context, competitionID, requesterID, userID int) error
	// RemoveUserEverywhere runs the deletion cascade for the user
	// inside the given transaction: creator competitions are handed to
	// another participant or canceled, memberships are removed, and
	// the user's measurements are anonymized rather than deleted.
	RemoveUserEverywhere(ctx context.Context, tx *sql.Tx, userID int) error
}

type membershipService struct {
	competitionRepo repositories.CompetitionRepository
	memberRepo      repositories.MemberRepository
	measurementRepo repositories.MeasurementRepository
	userRepo        repositories.UserRepository
	lifecycle       LifecycleService
	notifier        NotificationSink
	clock           Clock
}

func NewMembershipService(
	competitionRepo repositories.CompetitionRepository,
	memberRepo repositories.MemberRepository,
	measurementRepo repositories.MeasurementRepository,
	userRepo repositories.UserRepository,
	lifecycle LifecycleService,
	notifier NotificationSink,
	clock Clock,
) MembershipService {
	return &membershipService{
		competitionRepo: competitionRepo,
		memberRepo:      memberRepo,
		measurementRepo: measurementRepo,
		userRepo:        userRepo,
		lifecycle:       lifecycle,
		notifier:        notifier,
		clock:           clock,
	}
}

func (s *membershipService) Join(ctx context.Context, competitionID, userID int) (*JoinResult, error) {
	c, err := s.lifecycle.SyncCompetition(ctx, competitionID)
	if err != nil {
		return nil, err
	}

	if c.IsParticipant(userID) {
		return nil, ErrAlreadyParticipant
	}
	if c.HasJoinRequest(userID) {
		return nil, ErrJoinRequestPending
	}
	if c.Status != models.StatusUpcoming {
		return nil, ErrCompetitionStarted
	}
	if c.MaxParticipants != nil && len(c.Participants) >= *c.MaxParticipants {
		return nil, ErrCompetitionFull
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if err := checkProfileForMethod(user, c.Method); err != nil {
		return nil, err
	}

	if c.JoinMode == models.JoinModeApproval {
		member := &models.CompetitionMember{
			CompetitionID: competitionID,
			UserID:        userID,
			Status:        models.MemberPending,
		}
		if err := s.memberRepo.Add(ctx, nil, member); err != nil {
			if errors.Is(err, repositories.ErrMemberConflict) {
				return nil, ErrJoinRequestPending
			}
			return nil, err
		}
		s.notifier.Notify(ctx, c.CreatorID, models.Notification{
			Type:          models.NotificationJoinRequest,
			Title:         "New join request",
			Message:       fmt.Sprintf("%s wants to join %q.", user.DisplayName, c.Name),
			CompetitionID: &c.ID,
		})
		return &JoinResult{RequiresApproval: true}, nil
	}

	member := &models.CompetitionMember{
		CompetitionID: competitionID,
		UserID:        userID,
		Status:        models.MemberParticipant,
	}
	if err := s.memberRepo.Add(ctx, nil, member); err != nil {
		if errors.Is(err, repositories.ErrMemberConflict) {
			return nil, ErrAlreadyParticipant
		}
		return nil, err
	}
	s.notifier.Notify(ctx, userID, models.Notification{
		Type:          models.NotificationJoined,
		Title:         "You're in!",
		Message:       fmt.Sprintf("You joined %q. It starts on %s.", c.Name, c.StartDate.Format("Jan 2, 2006")),
		CompetitionID: &c.ID,
	})
	return &JoinResult{RequiresApproval: false}, nil
}

// checkProfileForMethod gates joining on the body-profile fields the
// competition's scoring method will need. Weight and height are always
// required; bmi competitions need a stored BMI (derived on every
// profile save) and bodyfat competitions a body-fat percentage.
func checkProfileForMethod(user *models.User, method models.MeasurementMethod) error {
	if user.WeightKg == nil || user.HeightCm == nil {
		return ErrProfileIncomplete
	}
	switch method {
	case models.MethodBMI:
		if user.BMI == nil {
			return ErrProfileIncomplete
		}
	case models.MethodBodyFat:
		if user.BodyFatPercentage == nil {
			return ErrProfileIncomplete
		}
	}
	return nil
}

func (s *membershipService) ApproveJoinRequest(ctx context.Context, competitionID, requesterID, userID int) error {
	c, err := s.loadForModeration(ctx, competitionID, requesterID)
	if err != nil {
		return err
	}
	if !c.HasJoinRequest(userID) {
		return ErrJoinRequestNotFound
	}
	if c.MaxParticipants != nil && len(c.Participants) >= *c.MaxParticipants {
		return ErrCompetitionFull
	}
	if err := s.memberRepo.UpdateStatus(ctx, nil, competitionID, userID, models.MemberParticipant); err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return ErrJoinRequestNotFound
		}
		return err
	}
	s.notifier.Notify(ctx, userID, models.Notification{
		Type:          models.NotificationJoinApproved,
		Title:         "Join request approved",
		Message:       fmt.Sprintf("You are now a participant of %q.", c.Name),
		CompetitionID: &c.ID,
	})
	return nil
}

func (s *membershipService) RejectJoinRequest(ctx context.Context, competitionID, requesterID, userID int) error {
	c, err := s.loadForModeration(ctx, competitionID, requesterID)
	if err != nil {
		return err
	}
	if !c.HasJoinRequest(userID) {
		return ErrJoinRequestNotFound
	}
	if err := s.memberRepo.Remove(ctx, nil, competitionID, userID); err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return ErrJoinRequestNotFound
		}
		return err
	}
	s.notifier.Notify(ctx, userID, models.Notification{
		Type:          models.NotificationJoinRejected,
		Title:         "Join request declined",
		Message:       fmt.Sprintf("Your request to join %q was declined.", c.Name),
		CompetitionID: &c.ID,
	})
	return nil
}

// loadForModeration fetches the competition with members and enforces
// that only the creator may manage its join requests.
func (s *membershipService) loadForModeration(ctx context.Context, competitionID, requesterID int) (*models.Competition, error) {
	c, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	if c.CreatorID != requesterID {
		return nil, ErrCreatorOnly
	}
	if err := populateMembers(ctx, s.memberRepo, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *membershipService) RemoveUserEverywhere(ctx context.Context, tx *sql.Tx, userID int) error {
	creatorID := userID
	created, err := s.competitionRepo.List(ctx, repositories.ListCompetitionsFilter{CreatorID: &creatorID})
	if err != nil {
		return fmt.Errorf("failed to list competitions created by user %d: %w", userID, err)
	}

	for i := range created {
		c := &created[i]
		if err := populateMembers(ctx, s.memberRepo, c); err != nil {
			return err
		}
		successor := 0
		for _, participantID := range c.Participants {
			if participantID != userID {
				successor = participantID
				break
			}
		}
		if successor != 0 {
			if err := s.competitionRepo.ReassignCreator(ctx, tx, c.ID, successor); err != nil {
				return fmt.Errorf("failed to reassign creator of competition %d: %w", c.ID, err)
			}
			continue
		}
		// Nobody left to take over; the competition is canceled unless
		// it already finished.
		if c.Status != models.StatusCompleted && c.Status != models.StatusCanceled {
			if _, err := s.competitionRepo.UpdateStatusFrom(ctx, tx, c.ID, c.Status, models.StatusCanceled); err != nil {
				return fmt.Errorf("failed to cancel competition %d: %w", c.ID, err)
			}
		}
	}

	if err := s.memberRepo.RemoveUserEverywhere(ctx, tx, userID); err != nil {
		return fmt.Errorf("failed to remove memberships of user %d: %w", userID, err)
	}
	if err := s.measurementRepo.AnonymizeByUser(ctx, tx, userID); err != nil {
		return fmt.Errorf("failed to anonymize measurements of user %d: %w", userID, err)
	}
	return nil
}
