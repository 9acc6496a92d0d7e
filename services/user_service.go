package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/fitfun/competition-system/models"
	"github.com/fitfun/competition-system/repositories"
	"github.com/fitfun/competition-system/storage"
	"github.com/fitfun/competition-system/utils"
)

// PhotoKind selects which of the user's photo slots an upload targets.
type PhotoKind string

const (
	PhotoProfile PhotoKind = "profile"
	PhotoBefore  PhotoKind = "before"
	PhotoAfter   PhotoKind = "after"
)

var photoColumns = map[PhotoKind]string{
	PhotoProfile: "profile_photo_key",
	PhotoBefore:  "before_photo_key",
	PhotoAfter:   "after_photo_key",
}

var ErrInvalidPhotoKind = errors.New("unknown photo kind")

// UpdateProfileInput carries the editable profile fields. Nil pointers
// mean "leave as is", so partial updates work naturally.
type UpdateProfileInput struct {
	RealName             *string  `json:"real_name,omitempty"`
	DisplayName          *string  `json:"display_name,omitempty"`
	WeightKg             *float64 `json:"weight,omitempty"`
	HeightCm             *float64 `json:"height,omitempty"`
	BodyFatPercentage    *float64 `json:"body_fat_percentage,omitempty"`
	MuscleMassPercentage *float64 `json:"muscle_mass_percentage,omitempty"`
	Country              *string  `json:"country,omitempty"`
	City                 *string  `json:"city,omitempty"`
}

type UserService interface {
	GetProfile(ctx context.Context, userID int) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.User, error)
	UploadPhoto(ctx context.Context, userID int, kind PhotoKind, filename, contentType string, file io.Reader) (*models.User, error)
	DeleteAccount(ctx context.Context, userID, requesterID int, requesterRole models.UserRole) error
}

type userService struct {
	db         *sql.DB
	userRepo   repositories.UserRepository
	membership MembershipService
	uploader   storage.FileUploader
	logger     *slog.Logger
}

func NewUserService(
	db *sql.DB,
	userRepo repositories.UserRepository,
	membership MembershipService,
	uploader storage.FileUploader,
	logger *slog.Logger,
) UserService {
	return &userService{
		db:         db,
		userRepo:   userRepo,
		membership: membership,
		uploader:   uploader,
		logger:     logger,
	}
}

func (s *userService) GetProfile(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	sanitizeUser(user)
	populateUserPhotoURLs(user, s.uploader)
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if input.RealName != nil {
		user.RealName = strings.TrimSpace(*input.RealName)
	}
	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" {
			return nil, ErrDisplayNameRequired
		}
		user.DisplayName = name
	}
	if input.WeightKg != nil {
		if *input.WeightKg <= 0 {
			return nil, ErrValidationFailed
		}
		user.WeightKg = input.WeightKg
	}
	if input.HeightCm != nil {
		if *input.HeightCm <= 0 {
			return nil, ErrValidationFailed
		}
		user.HeightCm = input.HeightCm
	}
	if input.BodyFatPercentage != nil {
		user.BodyFatPercentage = input.BodyFatPercentage
	}
	if input.MuscleMassPercentage != nil {
		user.MuscleMassPercentage = input.MuscleMassPercentage
	}
	if input.Country != nil {
		user.Country = input.Country
	}
	if input.City != nil {
		user.City = input.City
	}

	// BMI is recomputed on every save once both inputs exist.
	if user.WeightKg != nil && user.HeightCm != nil {
		bmi := utils.CalculateBMI(*user.WeightKg, *user.HeightCm)
		user.BMI = &bmi
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	sanitizeUser(user)
	populateUserPhotoURLs(user, s.uploader)
	return user, nil
}

func (s *userService) UploadPhoto(ctx context.Context, userID int, kind PhotoKind, filename, contentType string, file io.Reader) (*models.User, error) {
	column, ok := photoColumns[kind]
	if !ok {
		return nil, ErrInvalidPhotoKind
	}
	if s.uploader == nil {
		return nil, errors.New("photo storage is not configured")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	key := fmt.Sprintf("users/%d/%s%s", userID, uuid.NewString(), strings.ToLower(path.Ext(filename)))
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload photo: %w", err)
	}
	if err := s.userRepo.UpdatePhotoKey(ctx, userID, column, &key); err != nil {
		return nil, err
	}

	oldKey := photoKeyFor(user, kind)
	if oldKey != nil && *oldKey != "" {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.Warn("failed to delete replaced photo", slog.String("key", *oldKey), slog.Any("error", err))
		}
	}

	setPhotoKey(user, kind, &key)
	sanitizeUser(user)
	populateUserPhotoURLs(user, s.uploader)
	return user, nil
}

func photoKeyFor(user *models.User, kind PhotoKind) *string {
	switch kind {
	case PhotoProfile:
		return user.ProfilePhotoKey
	case PhotoBefore:
		return user.BeforePhotoKey
	case PhotoAfter:
		return user.AfterPhotoKey
	}
	return nil
}

func setPhotoKey(user *models.User, kind PhotoKind, key *string) {
	switch kind {
	case PhotoProfile:
		user.ProfilePhotoKey = key
	case PhotoBefore:
		user.BeforePhotoKey = key
	case PhotoAfter:
		user.AfterPhotoKey = key
	}
}

// DeleteAccount removes the account and runs the competition cascade in
// one transaction: created competitions are handed over or canceled,
// memberships removed and measurements anonymized.
func (s *userService) DeleteAccount(ctx context.Context, userID, requesterID int, requesterRole models.UserRole) error {
	if userID != requesterID && requesterRole != models.RoleAdmin && requesterRole != models.RoleSuperAdmin {
		return ErrForbiddenOperation
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.membership.RemoveUserEverywhere(ctx, tx, userID); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, tx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit account deletion: %w", err)
	}

	// Stored photos are cleaned up after the commit; a failure here
	// only leaks an object, never user data.
	if s.uploader != nil {
		for _, key := range []*string{user.ProfilePhotoKey, user.BeforePhotoKey, user.AfterPhotoKey} {
			if key == nil || *key == "" {
				continue
			}
			if err := s.uploader.Delete(ctx, *key); err != nil {
				s.logger.Warn("failed to delete photo of removed account", slog.String("key", *key), slog.Any("error", err))
			}
		}
	}
	return nil
}
