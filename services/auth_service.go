package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/fitfun/competition-system/models"
	"github.com/fitfun/competition-system/repositories"
	"github.com/fitfun/competition-system/utils"
)

const tokenTTL = 24 * time.Hour

type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	RealName    string `json:"real_name"`
	DisplayName string `json:"display_name"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, string, error)
	Login(ctx context.Context, input LoginInput) (*models.User, string, error)
}

type authService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	clock     Clock
}

func NewAuthService(userRepo repositories.UserRepository, jwtSecret []byte, clock Clock) AuthService {
	return &authService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		clock:     clock,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, string, error) {
	input.Email = strings.TrimSpace(input.Email)
	input.RealName = strings.TrimSpace(input.RealName)
	input.DisplayName = strings.TrimSpace(input.DisplayName)

	if !utils.IsValidEmail(input.Email) {
		return nil, "", ErrInvalidEmail
	}
	if !utils.IsStrongPassword(input.Password) {
		return nil, "", ErrPasswordTooWeak
	}
	if input.DisplayName == "" {
		return nil, "", ErrDisplayNameRequired
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        input.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		RealName:     input.RealName,
		DisplayName:  input.DisplayName,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, "", ErrEmailConflict
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	user.PasswordHash = ""
	return user, token, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !utils.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	user.PasswordHash = ""
	return user, token, nil
}

func (s *authService) issueToken(user *models.User) (string, error) {
	now := s.clock.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    string(user.Role),
		"iat":     now.Unix(),
		"exp":     now.Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
