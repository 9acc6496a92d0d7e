package services

import "errors"

// Shared errors used across services and the HTTP error mapping.
var (
	// Resource lookups
	ErrNotFound            = errors.New("requested resource not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrCompetitionNotFound = errors.New("competition not found")
	ErrMeasurementNotFound = errors.New("measurement not found")
	ErrTestimonialNotFound = errors.New("testimonial not found")

	// Validation and business rules
	ErrValidationFailed              = errors.New("validation failed")
	ErrInvalidEmail                  = errors.New("email address is not valid")
	ErrPasswordTooWeak               = errors.New("password must be at least 8 characters with upper case, lower case and a digit")
	ErrDisplayNameRequired           = errors.New("display name is required")
	ErrInvalidMeasurement            = errors.New("measurement weight must be a positive number")
	ErrCompetitionNameRequired       = errors.New("competition name is required")
	ErrCompetitionDatesRequired      = errors.New("competition start date is required")
	ErrCompetitionInvalidDuration    = errors.New("competition duration must be a positive number of days")
	ErrCompetitionInvalidCapacity    = errors.New("competition capacity must allow at least two participants")
	ErrCompetitionInvalidMethod      = errors.New("unknown measurement method")
	ErrCompetitionInvalidJoinMode    = errors.New("unknown join mode")
	ErrCompetitionInvalidWinnerDist  = errors.New("unknown winner distribution")
	ErrWeightRequired                = errors.New("weight is required")
	ErrBMIRequired                   = errors.New("BMI is required for this competition")
	ErrBodyFatRequired               = errors.New("body fat percentage is required for this competition")
	ErrProfileIncomplete             = errors.New("body profile is incomplete for this competition's measurement method")

	// State conflicts
	ErrAlreadyParticipant       = errors.New("user is already a participant of this competition")
	ErrJoinRequestPending       = errors.New("join request is already pending")
	ErrJoinRequestNotFound      = errors.New("join request not found")
	ErrCompetitionStarted       = errors.New("competition can no longer be joined")
	ErrCompetitionFull          = errors.New("competition has reached its participant limit")
	ErrCompetitionCompleted     = errors.New("competition is already completed")
	ErrCompetitionNotCompleted  = errors.New("competition has not completed yet")
	ErrCompetitionNotEditable   = errors.New("competition can only be changed before it starts")
	ErrNotParticipant           = errors.New("user is not a participant of this competition")
	ErrSubmissionNotOpen        = errors.New("measurements can only be submitted while the competition is active or in its grace period")
	ErrMeasurementWindowClosed  = errors.New("measurement can no longer be changed: the 24h grace window has passed")
	ErrEmailConflict            = errors.New("email address is already in use")

	// Authentication and authorization
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")
	ErrCreatorOnly        = errors.New("only the competition creator can perform this action")
)
