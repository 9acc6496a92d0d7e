package services

import (
	"context"
	"errors"
	"strings"

	"github.com/fitfun/competition-system/models"
	"github.com/fitfun/competition-system/repositories"
)

type SubmitTestimonialInput struct {
	CompetitionID int      `json:"competition_id"`
	Text          string   `json:"text"`
	WeightLostKg  *float64 `json:"weight_lost,omitempty"`
}

var ErrTestimonialTextRequired = errors.New("testimonial text is required")

type TestimonialService interface {
	Submit(ctx context.Context, userID int, input SubmitTestimonialInput) (*models.Testimonial, error)
	// List returns approved testimonials for everyone; moderators may
	// ask for the full moderation queue.
	List(ctx context.Context, includeUnapproved bool) ([]models.Testimonial, error)
	Moderate(ctx context.Context, testimonialID, moderatorID int, status models.TestimonialStatus) error
	Delete(ctx context.Context, testimonialID int) error
}

type testimonialService struct {
	testimonialRepo repositories.TestimonialRepository
	competitionRepo repositories.CompetitionRepository
	memberRepo      repositories.MemberRepository
}

func NewTestimonialService(
	testimonialRepo repositories.TestimonialRepository,
	competitionRepo repositories.CompetitionRepository,
	memberRepo repositories.MemberRepository,
) TestimonialService {
	return &testimonialService{
		testimonialRepo: testimonialRepo,
		competitionRepo: competitionRepo,
		memberRepo:      memberRepo,
	}
}

func (s *testimonialService) Submit(ctx context.Context, userID int, input SubmitTestimonialInput) (*models.Testimonial, error) {
	input.Text = strings.TrimSpace(input.Text)
	if input.Text == "" {
		return nil, ErrTestimonialTextRequired
	}

	c, err := s.competitionRepo.GetByID(ctx, input.CompetitionID)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	if c.Status != models.StatusCompleted {
		return nil, ErrCompetitionNotCompleted
	}
	member, err := s.memberRepo.Find(ctx, input.CompetitionID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return nil, ErrNotParticipant
		}
		return nil, err
	}
	if member.Status != models.MemberParticipant {
		return nil, ErrNotParticipant
	}

	t := &models.Testimonial{
		UserID:        userID,
		CompetitionID: input.CompetitionID,
		Text:          input.Text,
		WeightLostKg:  input.WeightLostKg,
		Status:        models.TestimonialPending,
	}
	if err := s.testimonialRepo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *testimonialService) List(ctx context.Context, includeUnapproved bool) ([]models.Testimonial, error) {
	return s.testimonialRepo.List(ctx, !includeUnapproved)
}

func (s *testimonialService) Moderate(ctx context.Context, testimonialID, moderatorID int, status models.TestimonialStatus) error {
	switch status {
	case models.TestimonialApproved, models.TestimonialHidden:
	default:
		return ErrValidationFailed
	}
	var approvedBy *int
	if status == models.TestimonialApproved {
		approvedBy = &moderatorID
	}
	if err := s.testimonialRepo.UpdateStatus(ctx, testimonialID, status, approvedBy); err != nil {
		if errors.Is(err, repositories.ErrTestimonialNotFound) {
			return ErrTestimonialNotFound
		}
		return err
	}
	return nil
}

func (s *testimonialService) Delete(ctx context.Context, testimonialID int) error {
	if err := s.testimonialRepo.Delete(ctx, testimonialID); err != nil {
		if errors.Is(err, repositories.ErrTestimonialNotFound) {
			return ErrTestimonialNotFound
		}
		return err
	}
	return nil
}
