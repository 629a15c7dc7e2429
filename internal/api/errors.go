package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/skillswap-api/internal/api/shared"
	"github.com/phrazzld/skillswap-api/internal/domain"
	"github.com/phrazzld/skillswap-api/internal/service/auth"
	"github.com/phrazzld/skillswap-api/internal/store"
)

// Error codes of the domain taxonomy as they appear in error responses.
const (
	CodeInvalidSkill       = "InvalidSkill"
	CodeUserNotFound       = "UserNotFound"
	CodeInvalidRequest     = "InvalidRequest"
	CodeInvalidTransition  = "InvalidTransition"
	CodeForbidden          = "Forbidden"
	CodeRequestNotAccepted = "RequestNotAccepted"
	CodeInvalidRating      = "InvalidRating"
)

// errBadInput marks malformed request input detected by the handlers.
var errBadInput = errors.New("invalid input")

func badInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadInput, fmt.Sprintf(format, args...))
}

// MapErrorToStatusCode maps an error to the HTTP status of its response.
// Anything outside the taxonomy is an internal error.
func MapErrorToStatusCode(err error) int {
	var validationErrs validator.ValidationErrors
	switch {
	case isAuthError(err):
		return http.StatusUnauthorized

	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrRequestNotAccepted),
		errors.Is(err, domain.ErrDuplicatePending):
		return http.StatusConflict

	case errors.Is(err, domain.ErrInvalidSkill),
		errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, errBadInput),
		errors.Is(err, shared.ErrEmptyBody),
		errors.As(err, &validationErrs):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode returns the code field of the error response for err.
func ErrorCode(err error) string {
	switch {
	case isAuthError(err):
		return shared.CodeUnauthorized
	case errors.Is(err, domain.ErrInvalidSkill):
		return CodeInvalidSkill
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, store.ErrUserNotFound):
		return CodeUserNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return CodeInvalidTransition
	case errors.Is(err, domain.ErrForbidden):
		return CodeForbidden
	case errors.Is(err, domain.ErrRequestNotAccepted):
		return CodeRequestNotAccepted
	case errors.Is(err, domain.ErrInvalidRating):
		return CodeInvalidRating
	case errors.Is(err, domain.ErrInvalidRequest):
		return CodeInvalidRequest
	case errors.Is(err, store.ErrNotFound):
		return shared.CodeNotFound
	}
	if MapErrorToStatusCode(err) == http.StatusBadRequest {
		return CodeInvalidRequest
	}
	return shared.CodeInternal
}

// GetSafeErrorMessage returns the client-facing message for err. Messages of
// the domain taxonomy describe the caller's mistake and are returned as is;
// everything else gets a generic message.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErrs validator.ValidationErrors
	switch {
	case isAuthError(err):
		return "Invalid token"
	case errors.As(err, &validationErrs):
		return SanitizeValidationError(err)
	case errors.Is(err, store.ErrRequestNotFound):
		return "Pairing request not found"
	case errors.Is(err, store.ErrSessionNotFound):
		return "Session not found"
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, store.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"
	case isDomainError(err), errors.Is(err, errBadInput), errors.Is(err, shared.ErrEmptyBody):
		return err.Error()
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator failures into a short message
// naming the first offending field.
func SanitizeValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return "Validation error"
	}

	fe := validationErrs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), validationTagMessage(fe.Tag()))
}

// HandleAPIError writes the error response for err. fallbackMessage, when
// not empty, replaces the generic message of internal errors.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallbackMessage != "" {
		message = fallbackMessage
	}
	shared.RespondWithErrorAndLog(w, r, status, ErrorCode(err), message, err)
}

func isAuthError(err error) bool {
	return errors.Is(err, auth.ErrInvalidToken) ||
		errors.Is(err, auth.ErrExpiredToken) ||
		errors.Is(err, auth.ErrWrongTokenType)
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidSkill,
		domain.ErrInvalidRequest,
		domain.ErrInvalidTransition,
		domain.ErrForbidden,
		domain.ErrRequestNotAccepted,
		domain.ErrInvalidRating,
		domain.ErrValidation,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "uuid", "uuid4":
		return "must be a UUID"
	case "min":
		return "too short or too small"
	case "max":
		return "too long or too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
