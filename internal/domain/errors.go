// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy of the matching and engagement engine. Every sentinel is
// recoverable by the caller and is surfaced to the boundary unchanged.
var (
	// ErrInvalidSkill is returned for empty or whitespace-only skill strings.
	ErrInvalidSkill = errors.New("invalid skill")

	// ErrUserNotFound is returned when a user id is unknown to the skill index.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidRequest is returned when a pairing request or session
	// proposal fails its creation guards.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidTransition is returned when a state machine transition is not
	// allowed from the entity's current status.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrForbidden is returned when the acting user may not perform the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrRequestNotAccepted is returned when scheduling a session for a
	// pairing request that is not accepted.
	ErrRequestNotAccepted = errors.New("request not accepted")

	// ErrInvalidRating is returned for participant ratings outside [MinRating, MaxRating].
	ErrInvalidRating = errors.New("invalid rating")
)

// Refinements of the taxonomy. They match their parent sentinel with errors.Is.
var (
	ErrSelfRequest        = fmt.Errorf("%w: requester and recipient must differ", ErrInvalidRequest)
	ErrNoSkills           = fmt.Errorf("%w: at least one skill is required", ErrInvalidRequest)
	ErrSkillNotOffered    = fmt.Errorf("%w: skill is not part of either user's skill sets", ErrInvalidRequest)
	ErrDuplicatePending   = fmt.Errorf("%w: a pending request to this user already exists", ErrInvalidRequest)
	ErrInvalidDuration    = fmt.Errorf("%w: duration must be a positive whole number of minutes", ErrInvalidRequest)
	ErrEmptyLocation      = fmt.Errorf("%w: location cannot be empty", ErrInvalidRequest)
	ErrMissingDate        = fmt.Errorf("%w: scheduled date is required", ErrInvalidRequest)
	ErrAttendanceTooEarly = fmt.Errorf("%w: session has not started yet", ErrInvalidTransition)
)

// ErrValidation is returned when a domain entity fails structural validation.
// This is often wrapped with a more specific error message.
var ErrValidation = errors.New("validation failed")

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped sentinel.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError for field. If err is nil the
// error wraps ErrValidation.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{Field: field, Message: message, Err: err}
}
