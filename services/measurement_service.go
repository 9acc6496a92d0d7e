package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fitfun/competition-system/competition"
	"github.com/fitfun/competition-system/models"
	"github.com/fitfun/competition-system/repositories"
	"github.com/fitfun/competition-system/utils"
)

// SubmitMeasurementInput carries a new body measurement. CompetitionID
// is optional; without it the entry is standalone progress tracking and
// no submission window applies.
type SubmitMeasurementInput struct {
	CompetitionID        *int     `json:"competition_id,omitempty"`
	WeightKg             float64  `json:"weight"`
	BMI                  *float64 `json:"bmi,omitempty"`
	BodyFatPercentage    *float64 `json:"body_fat_percentage,omitempty"`
	MuscleMassPercentage *float64 `json:"muscle_mass_percentage,omitempty"`
}

type UpdateMeasurementInput struct {
	WeightKg             float64  `json:"weight"`
	BMI                  *float64 `json:"bmi,omitempty"`
	BodyFatPercentage    *float64 `json:"body_fat_percentage,omitempty"`
	MuscleMassPercentage *float64 `json:"muscle_mass_percentage,omitempty"`
}

// MeasurementReminder tells a participant how their logging cadence is
// going in one competition.
type MeasurementReminder struct {
	CompetitionID   int     `json:"competition_id"`
	CompetitionName string  `json:"competition_name"`
	FrequencyDays   int     `json:"frequency_days"`
	LoggedCount     int     `json:"logged_count"`
	ExpectedCount   int     `json:"expected_count"`
	LastTakenAt     *string `json:"last_taken_at,omitempty"`
	Due             bool    `json:"due"`
}

type MeasurementService interface {
	Submit(ctx context.Context, userID int, input SubmitMeasurementInput) (*models.Measurement, error)
	Update(ctx context.Context, measurementID, userID int, input UpdateMeasurementInput) (*models.Measurement, error)
	Delete(ctx context.Context, measurementID, userID int) error
	ListForUser(ctx context.Context, userID int, competitionID *int) ([]models.Measurement, error)
	// ListForCompetition returns every entry logged to the competition,
	// visible to its participants only.
	ListForCompetition(ctx context.Context, competitionID, requesterID int) ([]models.Measurement, error)
	Reminders(ctx context.Context, userID int) ([]MeasurementReminder, error)
}

type measurementService struct {
	measurementRepo repositories.MeasurementRepository
	competitionRepo repositories.CompetitionRepository
	memberRepo      repositories.MemberRepository
	userRepo        repositories.UserRepository
	lifecycle       LifecycleService
	clock           Clock
}

func NewMeasurementService(
	measurementRepo repositories.MeasurementRepository,
	competitionRepo repositories.CompetitionRepository,
	memberRepo repositories.MemberRepository,
	userRepo repositories.UserRepository,
	lifecycle LifecycleService,
	clock Clock,
) MeasurementService {
	return &measurementService{
		measurementRepo: measurementRepo,
		competitionRepo: competitionRepo,
		memberRepo:      memberRepo,
		userRepo:        userRepo,
		lifecycle:       lifecycle,
		clock:           clock,
	}
}

func (s *measurementService) Submit(ctx context.Context, userID int, input SubmitMeasurementInput) (*models.Measurement, error) {
	if input.WeightKg == 0 {
		return nil, ErrWeightRequired
	}
	if input.WeightKg < 0 {
		return nil, ErrInvalidMeasurement
	}
	now := s.clock.Now()

	var c *models.Competition
	if input.CompetitionID != nil {
		synced, err := s.lifecycle.SyncCompetition(ctx, *input.CompetitionID)
		if err != nil {
			return nil, err
		}
		if !synced.IsParticipant(userID) {
			return nil, ErrNotParticipant
		}
		if !competition.CanSubmitMeasurement(synced, now) {
			return nil, ErrSubmissionNotOpen
		}
		c = synced
	}

	m := &models.Measurement{
		UserID:               &userID,
		CompetitionID:        input.CompetitionID,
		WeightKg:             input.WeightKg,
		BMI:                  input.BMI,
		BodyFatPercentage:    input.BodyFatPercentage,
		MuscleMassPercentage: input.MuscleMassPercentage,
		TakenAt:              now,
	}
	s.deriveBMI(ctx, m, userID)
	if err := requireMethodFields(c, m); err != nil {
		return nil, err
	}

	if err := s.measurementRepo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to save measurement: %w", err)
	}
	return m, nil
}

// deriveBMI fills in the BMI from the profile height when the entry
// does not carry one explicitly.
func (s *measurementService) deriveBMI(ctx context.Context, m *models.Measurement, userID int) {
	if m.BMI != nil {
		return
	}
	if user, err := s.userRepo.GetByID(ctx, userID); err == nil && user.HeightCm != nil {
		bmi := utils.CalculateBMI(m.WeightKg, *user.HeightCm)
		m.BMI = &bmi
	}
}

// requireMethodFields rejects entries missing the field the
// competition's scoring method reads. Standalone entries (nil
// competition) carry whatever the user logged.
func requireMethodFields(c *models.Competition, m *models.Measurement) error {
	if c == nil {
		return nil
	}
	switch c.Method {
	case models.MethodBMI:
		if m.BMI == nil {
			return ErrBMIRequired
		}
	case models.MethodBodyFat:
		if m.BodyFatPercentage == nil {
			return ErrBodyFatRequired
		}
	}
	return nil
}

func (s *measurementService) Update(ctx context.Context, measurementID, userID int, input UpdateMeasurementInput) (*models.Measurement, error) {
	if input.WeightKg == 0 {
		return nil, ErrWeightRequired
	}
	if input.WeightKg < 0 {
		return nil, ErrInvalidMeasurement
	}
	m, err := s.loadOwned(ctx, measurementID, userID)
	if err != nil {
		return nil, err
	}
	c, err := s.checkWindow(ctx, m)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	m.WeightKg = input.WeightKg
	m.BMI = input.BMI
	m.BodyFatPercentage = input.BodyFatPercentage
	m.MuscleMassPercentage = input.MuscleMassPercentage
	m.EditedAt = &now
	s.deriveBMI(ctx, m, userID)
	if err := requireMethodFields(c, m); err != nil {
		return nil, err
	}

	if err := s.measurementRepo.Update(ctx, m); err != nil {
		if errors.Is(err, repositories.ErrMeasurementNotFound) {
			return nil, ErrMeasurementNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s *measurementService) Delete(ctx context.Context, measurementID, userID int) error {
	m, err := s.loadOwned(ctx, measurementID, userID)
	if err != nil {
		return err
	}
	if _, err := s.checkWindow(ctx, m); err != nil {
		return err
	}
	if err := s.measurementRepo.Delete(ctx, measurementID); err != nil {
		if errors.Is(err, repositories.ErrMeasurementNotFound) {
			return ErrMeasurementNotFound
		}
		return err
	}
	return nil
}

func (s *measurementService) ListForUser(ctx context.Context, userID int, competitionID *int) ([]models.Measurement, error) {
	return s.measurementRepo.ListByUser(ctx, userID, competitionID)
}

func (s *measurementService) ListForCompetition(ctx context.Context, competitionID, requesterID int) ([]models.Measurement, error) {
	if _, err := s.competitionRepo.GetByID(ctx, competitionID); err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	member, err := s.memberRepo.Find(ctx, competitionID, requesterID)
	if err != nil || member.Status != models.MemberParticipant {
		return nil, ErrNotParticipant
	}
	return s.measurementRepo.ListByCompetition(ctx, competitionID)
}

func (s *measurementService) loadOwned(ctx context.Context, measurementID, userID int) (*models.Measurement, error) {
	m, err := s.measurementRepo.GetByID(ctx, measurementID)
	if err != nil {
		if errors.Is(err, repositories.ErrMeasurementNotFound) {
			return nil, ErrMeasurementNotFound
		}
		return nil, err
	}
	if !m.OwnedBy(userID) {
		return nil, ErrForbiddenOperation
	}
	return m, nil
}

// checkWindow rejects edits and deletions once the measurement's
// competition has left its grace period. Standalone entries stay
// editable forever. The loaded competition is returned so callers can
// validate method-required fields without a second read.
func (s *measurementService) checkWindow(ctx context.Context, m *models.Measurement) (*models.Competition, error) {
	if m.CompetitionID == nil {
		return nil, nil
	}
	c, err := s.competitionRepo.GetByID(ctx, *m.CompetitionID)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			// Competition row is gone; treat the entry as standalone.
			return nil, nil
		}
		return nil, err
	}
	if !competition.CanMutateMeasurement(c, s.clock.Now()) {
		return nil, ErrMeasurementWindowClosed
	}
	return c, nil
}

func (s *measurementService) Reminders(ctx context.Context, userID int) ([]MeasurementReminder, error) {
	competitions, err := s.competitionRepo.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	reminders := make([]MeasurementReminder, 0)
	for i := range competitions {
		c := &competitions[i]
		status := competition.ResolveStatus(c, now)
		if status != models.StatusActive && status != models.StatusGracePeriod {
			continue
		}
		ms, err := s.measurementRepo.ListByUser(ctx, userID, &c.ID)
		if err != nil {
			return nil, err
		}

		freq := competition.MeasurementFrequency(c.DurationDays)
		reminder := MeasurementReminder{
			CompetitionID:   c.ID,
			CompetitionName: c.Name,
			FrequencyDays:   freq,
			LoggedCount:     len(ms),
			ExpectedCount:   competition.RequiredMeasurementCount(c.DurationDays),
		}
		if len(ms) == 0 {
			reminder.Due = true
		} else {
			last := ms[len(ms)-1].TakenAt
			formatted := last.Format(time.RFC3339)
			reminder.LastTakenAt = &formatted
			reminder.Due = now.Sub(last) >= time.Duration(freq)*24*time.Hour
		}
		reminders = append(reminders, reminder)
	}
	return reminders, nil
}
