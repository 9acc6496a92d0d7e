package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitfun/competition-system/models"
)

const testJWTSecret = "test-secret-do-not-reuse"

func newAuthService(now time.Time) (AuthService, *fakeUserRepo) {
	users := newFakeUserRepo()
	return NewAuthService(users, []byte(testJWTSecret), &fakeClock{now: now}), users
}

func TestRegisterValidation(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	svc, _ := newAuthService(now)

	cases := []struct {
		name  string
		input RegisterInput
		want  error
	}{
		{"bad email", RegisterInput{Email: "not-an-email", Password: "Sup3rSecret", DisplayName: "x"}, ErrInvalidEmail},
		{"weak password", RegisterInput{Email: "a@example.com", Password: "short", DisplayName: "x"}, ErrPasswordTooWeak},
		{"no uppercase", RegisterInput{Email: "a@example.com", Password: "lowercase1only", DisplayName: "x"}, ErrPasswordTooWeak},
		{"missing display name", RegisterInput{Email: "a@example.com", Password: "Sup3rSecret", DisplayName: "  "}, ErrDisplayNameRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Register(context.Background(), tc.input)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRegisterAndLogin(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	svc, users := newAuthService(now)

	user, token, err := svc.Register(context.Background(), RegisterInput{
		Email:       " jane@example.com ",
		Password:    "Sup3rSecret",
		RealName:    "Jane Doe",
		DisplayName: "jane",
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Empty(t, user.PasswordHash, "hash must not leak to callers")
	assert.NotEmpty(t, token)

	// The stored row keeps the hash.
	stored, err := users.GetByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.PasswordHash)

	_, _, err = svc.Register(context.Background(), RegisterInput{
		Email:       "jane@example.com",
		Password:    "An0therSecret",
		DisplayName: "jane2",
	})
	assert.ErrorIs(t, err, ErrEmailConflict)

	_, _, err = svc.Login(context.Background(), LoginInput{Email: "jane@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "Sup3rSecret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	logged, token2, err := svc.Login(context.Background(), LoginInput{Email: "jane@example.com", Password: "Sup3rSecret"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotEmpty(t, token2)
}

func TestTokenClaims(t *testing.T) {
	// Issue against the real clock so exp validation passes in Parse.
	now := time.Now().Truncate(time.Second)
	svc, _ := newAuthService(now)

	user, token, err := svc.Register(context.Background(), RegisterInput{
		Email:       "claims@example.com",
		Password:    "Sup3rSecret",
		DisplayName: "claims",
	})
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, float64(user.ID), claims["user_id"])
	assert.Equal(t, string(models.RoleUser), claims["role"])
	assert.Equal(t, float64(now.Unix()), claims["iat"])
	assert.Equal(t, float64(now.Add(24*time.Hour).Unix()), claims["exp"])
}