package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fitfun/competition-system/competition"
	"github.com/fitfun/competition-system/models"
	"github.com/fitfun/competition-system/repositories"
	"github.com/fitfun/competition-system/storage"
)

type CreateCompetitionInput struct {
	Name               string                    `json:"name"`
	Description        *string                   `json:"description,omitempty"`
	IsPublic           bool                      `json:"is_public"`
	JoinMode           models.JoinMode           `json:"join_mode"`
	MaxParticipants    *int                      `json:"max_participants,omitempty"`
	StartDate          time.Time                 `json:"start_date"`
	DurationDays       int                       `json:"duration"`
	Method             models.MeasurementMethod  `json:"measurement_method"`
	PrizeDescription   *string                   `json:"prize_description,omitempty"`
	WinnerDistribution models.WinnerDistribution `json:"winner_distribution"`
}

// UpdateCompetitionInput allows editing a competition before it starts.
// Nil pointers leave the field unchanged.
type UpdateCompetitionInput struct {
	Name               *string                    `json:"name,omitempty"`
	Description        *string                    `json:"description,omitempty"`
	IsPublic           *bool                      `json:"is_public,omitempty"`
	JoinMode           *models.JoinMode           `json:"join_mode,omitempty"`
	MaxParticipants    *int                       `json:"max_participants,omitempty"`
	StartDate          *time.Time                 `json:"start_date,omitempty"`
	DurationDays       *int                       `json:"duration,omitempty"`
	Method             *models.MeasurementMethod  `json:"measurement_method,omitempty"`
	PrizeDescription   *string                    `json:"prize_description,omitempty"`
	WinnerDistribution *models.WinnerDistribution `json:"winner_distribution,omitempty"`
}

// LeaderboardEntry is one row of the live or final standings, enriched
// with the participant's public display data.
type LeaderboardEntry struct {
	Rank            int     `json:"rank"`
	UserID          int     `json:"user_id"`
	DisplayName     string  `json:"display_name"`
	ProfilePhotoURL *string `json:"profile_photo_url,omitempty"`
	Score           float64 `json:"score"`
	HasMeasurements bool    `json:"has_measurements"`
	IsWinner        bool    `json:"is_winner"`
}

type Leaderboard struct {
	CompetitionID int                      `json:"competition_id"`
	Status        models.CompetitionStatus `json:"status"`
	Method        models.MeasurementMethod `json:"measurement_method"`
	Final         bool                     `json:"final"`
	Entries       []LeaderboardEntry       `json:"entries"`
}

type CompetitionService interface {
	Create(ctx context.Context, creatorID int, input CreateCompetitionInput) (*models.Competition, error)
	Update(ctx context.Context, competitionID, requesterID int, requesterRole models.UserRole, input UpdateCompetitionInput) (*models.Competition, error)
	Get(ctx context.Context, competitionID int) (*models.Competition, error)
	ListPublic(ctx context.Context, limit, offset int) ([]models.Competition, error)
	ListMine(ctx context.Context, userID int) ([]models.Competition, error)
	Leaderboard(ctx context.Context, competitionID int) (*Leaderboard, error)
	Cancel(ctx context.Context, competitionID, requesterID int) error
}

type competitionService struct {
	competitionRepo repositories.CompetitionRepository
	memberRepo      repositories.MemberRepository
	measurementRepo repositories.MeasurementRepository
	userRepo        repositories.UserRepository
	lifecycle       LifecycleService
	uploader        storage.FileUploader
	clock           Clock
}

func NewCompetitionService(
	competitionRepo repositories.CompetitionRepository,
	memberRepo repositories.MemberRepository,
	measurementRepo repositories.MeasurementRepository,
	userRepo repositories.UserRepository,
	lifecycle LifecycleService,
	uploader storage.FileUploader,
	clock Clock,
) CompetitionService {
	return &competitionService{
		competitionRepo: competitionRepo,
		memberRepo:      memberRepo,
		measurementRepo: measurementRepo,
		userRepo:        userRepo,
		lifecycle:       lifecycle,
		uploader:        uploader,
		clock:           clock,
	}
}

func (s *competitionService) Create(ctx context.Context, creatorID int, input CreateCompetitionInput) (*models.Competition, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.JoinMode == "" {
		input.JoinMode = models.JoinModeFree
	}
	if input.WinnerDistribution == "" {
		input.WinnerDistribution = models.WinnersTop1
	}
	if err := validateCompetitionFields(input.Name, input.StartDate, input.DurationDays, input.MaxParticipants,
		input.Method, input.JoinMode, input.WinnerDistribution, s.clock.Now()); err != nil {
		return nil, err
	}

	c := &models.Competition{
		Name:               input.Name,
		Description:        input.Description,
		CreatorID:          creatorID,
		IsPublic:           input.IsPublic,
		JoinMode:           input.JoinMode,
		MaxParticipants:    input.MaxParticipants,
		StartDate:          input.StartDate,
		DurationDays:       input.DurationDays,
		Method:             input.Method,
		PrizeDescription:   input.PrizeDescription,
		WinnerDistribution: input.WinnerDistribution,
		Status:             models.StatusUpcoming,
	}
	if err := s.competitionRepo.Create(ctx, c); err != nil {
		if errors.Is(err, repositories.ErrCompetitionInvalidCreator) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create competition: %w", err)
	}

	// The creator participates from day one.
	member := &models.CompetitionMember{
		CompetitionID: c.ID,
		UserID:        creatorID,
		Status:        models.MemberParticipant,
	}
	if err := s.memberRepo.Add(ctx, nil, member); err != nil {
		return nil, fmt.Errorf("failed to add creator as participant: %w", err)
	}
	c.Participants = []int{creatorID}
	return c, nil
}

func validateCompetitionFields(
	name string,
	startDate time.Time,
	durationDays int,
	maxParticipants *int,
	method models.MeasurementMethod,
	joinMode models.JoinMode,
	dist models.WinnerDistribution,
	now time.Time,
) error {
	if name == "" {
		return ErrCompetitionNameRequired
	}
	if startDate.IsZero() || startDate.Before(now) {
		return ErrCompetitionDatesRequired
	}
	if durationDays <= 0 {
		return ErrCompetitionInvalidDuration
	}
	if maxParticipants != nil && *maxParticipants < 2 {
		return ErrCompetitionInvalidCapacity
	}
	switch method {
	case models.MethodAbsolute, models.MethodPercentage, models.MethodBMI, models.MethodBodyFat:
	default:
		return ErrCompetitionInvalidMethod
	}
	switch joinMode {
	case models.JoinModeFree, models.JoinModeApproval:
	default:
		return ErrCompetitionInvalidJoinMode
	}
	switch dist {
	case models.WinnersTop1, models.WinnersTop2, models.WinnersTop3:
	default:
		return ErrCompetitionInvalidWinnerDist
	}
	return nil
}

func (s *competitionService) Update(ctx context.Context, competitionID, requesterID int, requesterRole models.UserRole, input UpdateCompetitionInput) (*models.Competition, error) {
	c, err := s.lifecycle.SyncCompetition(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	if c.CreatorID != requesterID && requesterRole != models.RoleAdmin && requesterRole != models.RoleSuperAdmin {
		return nil, ErrCreatorOnly
	}
	if c.Status != models.StatusUpcoming {
		return nil, ErrCompetitionNotEditable
	}

	if input.Name != nil {
		c.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		c.Description = input.Description
	}
	if input.IsPublic != nil {
		c.IsPublic = *input.IsPublic
	}
	if input.JoinMode != nil {
		c.JoinMode = *input.JoinMode
	}
	if input.MaxParticipants != nil {
		c.MaxParticipants = input.MaxParticipants
	}
	if input.StartDate != nil {
		c.StartDate = *input.StartDate
	}
	if input.DurationDays != nil {
		c.DurationDays = *input.DurationDays
	}
	if input.Method != nil {
		c.Method = *input.Method
	}
	if input.PrizeDescription != nil {
		c.PrizeDescription = input.PrizeDescription
	}
	if input.WinnerDistribution != nil {
		c.WinnerDistribution = *input.WinnerDistribution
	}

	if err := validateCompetitionFields(c.Name, c.StartDate, c.DurationDays, c.MaxParticipants,
		c.Method, c.JoinMode, c.WinnerDistribution, s.clock.Now()); err != nil {
		return nil, err
	}
	// Shrinking capacity below the current headcount would strand
	// participants.
	if c.MaxParticipants != nil && len(c.Participants) > *c.MaxParticipants {
		return nil, ErrCompetitionInvalidCapacity
	}

	if err := s.competitionRepo.Update(ctx, c); err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *competitionService) Get(ctx context.Context, competitionID int) (*models.Competition, error) {
	return s.lifecycle.SyncCompetition(ctx, competitionID)
}

func (s *competitionService) ListPublic(ctx context.Context, limit, offset int) ([]models.Competition, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	competitions, err := s.competitionRepo.List(ctx, repositories.ListCompetitionsFilter{
		PublicOnly: true,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, err
	}
	s.refreshStatuses(competitions)
	return competitions, nil
}

func (s *competitionService) ListMine(ctx context.Context, userID int) ([]models.Competition, error) {
	competitions, err := s.competitionRepo.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.refreshStatuses(competitions)
	return competitions, nil
}

// refreshStatuses overlays the time-derived status on listings without
// touching the database; persisted rows catch up on the next sweep or
// detail read.
func (s *competitionService) refreshStatuses(competitions []models.Competition) {
	now := s.clock.Now()
	for i := range competitions {
		c := &competitions[i]
		if c.Status == models.StatusCompleted || c.Status == models.StatusCanceled {
			continue
		}
		if resolved := competition.ResolveStatus(c, now); resolved != models.StatusCompleted {
			c.Status = resolved
		}
	}
}

func (s *competitionService) Leaderboard(ctx context.Context, competitionID int) (*Leaderboard, error) {
	c, err := s.lifecycle.SyncCompetition(ctx, competitionID)
	if err != nil {
		return nil, err
	}

	board := &Leaderboard{
		CompetitionID: c.ID,
		Status:        c.Status,
		Method:        c.Method,
		Final:         c.Status == models.StatusCompleted,
	}

	var entries []LeaderboardEntry
	if board.Final {
		for _, r := range c.Results {
			entries = append(entries, LeaderboardEntry{
				Rank:            r.Rank,
				UserID:          r.UserID,
				Score:           r.Score,
				HasMeasurements: r.HasMeasurements,
				IsWinner:        r.IsWinner,
			})
		}
	} else {
		measurements, err := s.measurementRepo.ListByCompetition(ctx, competitionID)
		if err != nil {
			return nil, err
		}
		live := competition.ComputeLeaderboard(c, groupMeasurementsByUser(measurements))
		for _, e := range live {
			entries = append(entries, LeaderboardEntry{
				Rank:            e.Rank,
				UserID:          e.UserID,
				Score:           e.Score,
				HasMeasurements: e.HasMeasurements,
			})
		}
	}

	if err := s.decorateEntries(ctx, entries); err != nil {
		return nil, err
	}
	board.Entries = entries
	return board, nil
}

// decorateEntries fills in display names and photo links for the users
// still present; anonymized participants simply keep an empty name.
func (s *competitionService) decorateEntries(ctx context.Context, entries []LeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]int, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}
	users, err := s.userRepo.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[int]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for i := range entries {
		u, ok := byID[entries[i].UserID]
		if !ok {
			continue
		}
		entries[i].DisplayName = u.DisplayName
		if s.uploader != nil && u.ProfilePhotoKey != nil {
			url := s.uploader.GetPublicURL(*u.ProfilePhotoKey)
			entries[i].ProfilePhotoURL = &url
		}
	}
	return nil
}

func (s *competitionService) Cancel(ctx context.Context, competitionID, requesterID int) error {
	return s.lifecycle.Cancel(ctx, competitionID, requesterID)
}
