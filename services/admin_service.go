package services

import (
	"context"
	"errors"

	"github.com/fitfun/competition-system/models"
	"github.com/fitfun/competition-system/repositories"
	"github.com/fitfun/competition-system/storage"
)

// PlatformStats is the admin dashboard summary.
type PlatformStats struct {
	UsersTotal         int `json:"users_total"`
	CompetitionsTotal  int `json:"competitions_total"`
	CompetitionsActive int `json:"competitions_active"`
	MeasurementsTotal  int `json:"measurements_total"`
}

type AdminService interface {
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	// ListCompetitions returns every competition, private ones included.
	ListCompetitions(ctx context.Context, limit, offset int) ([]models.Competition, error)
	// DeleteCompetition removes the competition row outright, unlike
	// Cancel which keeps it for the record.
	DeleteCompetition(ctx context.Context, competitionID int) error
	GetStats(ctx context.Context) (PlatformStats, error)
}

type adminService struct {
	userRepo        repositories.UserRepository
	competitionRepo repositories.CompetitionRepository
	measurementRepo repositories.MeasurementRepository
	uploader        storage.FileUploader
}

func NewAdminService(
	userRepo repositories.UserRepository,
	competitionRepo repositories.CompetitionRepository,
	measurementRepo repositories.MeasurementRepository,
	uploader storage.FileUploader,
) AdminService {
	return &adminService{
		userRepo:        userRepo,
		competitionRepo: competitionRepo,
		measurementRepo: measurementRepo,
		uploader:        uploader,
	}
}

func (s *adminService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		sanitizeUser(u)
		populateUserPhotoURLs(u, s.uploader)
	}
	return users, nil
}

func (s *adminService) ListCompetitions(ctx context.Context, limit, offset int) ([]models.Competition, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.competitionRepo.List(ctx, repositories.ListCompetitionsFilter{
		Limit:  limit,
		Offset: offset,
	})
}

func (s *adminService) DeleteCompetition(ctx context.Context, competitionID int) error {
	if _, err := s.competitionRepo.GetByID(ctx, competitionID); err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return ErrCompetitionNotFound
		}
		return err
	}
	return s.competitionRepo.Delete(ctx, competitionID)
}

func (s *adminService) GetStats(ctx context.Context) (PlatformStats, error) {
	usersTotal, err := s.userRepo.Count(ctx)
	if err != nil {
		return PlatformStats{}, err
	}
	competitionsTotal, err := s.competitionRepo.Count(ctx)
	if err != nil {
		return PlatformStats{}, err
	}
	measurementsTotal, err := s.measurementRepo.Count(ctx)
	if err != nil {
		return PlatformStats{}, err
	}
	active := models.StatusActive
	activeCompetitions, err := s.competitionRepo.List(ctx, repositories.ListCompetitionsFilter{Status: &active})
	if err != nil {
		return PlatformStats{}, err
	}
	return PlatformStats{
		UsersTotal:         usersTotal,
		CompetitionsTotal:  competitionsTotal,
		CompetitionsActive: len(activeCompetitions),
		MeasurementsTotal:  measurementsTotal,
	}, nil
}
