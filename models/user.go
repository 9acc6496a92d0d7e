package models

import "time"

// UserRole mirrors the ENUM in the database.
type UserRole string

const (
	RoleUser       UserRole = "user"
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "super_admin"
)

// User represents a registered account together with its body profile.
// Body profile fields are optional until the user fills them in; BMI is
// derived from weight and height whenever both are saved.
type User struct {
	ID                   int       `json:"id" db:"id"`
	Email                string    `json:"email" db:"email"`
	PasswordHash         string    `json:"-" db:"password_hash"`
	Role                 UserRole  `json:"role" db:"role"`
	RealName             string    `json:"real_name" db:"real_name"`
	DisplayName          string    `json:"display_name" db:"display_name"`
	WeightKg             *float64  `json:"weight,omitempty" db:"weight_kg"`
	HeightCm             *float64  `json:"height,omitempty" db:"height_cm"`
	BMI                  *float64  `json:"bmi,omitempty" db:"bmi"`
	BodyFatPercentage    *float64  `json:"body_fat_percentage,omitempty" db:"body_fat_percentage"`
	MuscleMassPercentage *float64  `json:"muscle_mass_percentage,omitempty" db:"muscle_mass_percentage"`
	Country              *string   `json:"country,omitempty" db:"country"`
	City                 *string   `json:"city,omitempty" db:"city"`
	ProfilePhotoKey      *string   `json:"-" db:"profile_photo_key"`
	ProfilePhotoURL      *string   `json:"profile_photo_url,omitempty" db:"-"`
	BeforePhotoKey       *string   `json:"-" db:"before_photo_key"`
	AfterPhotoKey        *string   `json:"-" db:"after_photo_key"`
	BeforePhotoURL       *string   `json:"before_photo_url,omitempty" db:"-"`
	AfterPhotoURL        *string   `json:"after_photo_url,omitempty" db:"-"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
}

// IsAdmin reports whether the user holds any administrative role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
