package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/skillswap-api/internal/domain"
	"github.com/phrazzld/skillswap-api/internal/store"
)

// ServiceError wraps an unexpected failure with the service and operation
// that produced it. Expected conditions are returned as domain sentinels
// instead, so callers can match them with errors.Is.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
	}
	return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op string, err error) *ServiceError {
	return &ServiceError{Service: service, Op: op, Err: err}
}

// expected lists the errors surfaced to callers as-is.
var expected = []error{
	domain.ErrInvalidSkill,
	domain.ErrUserNotFound,
	domain.ErrInvalidRequest,
	domain.ErrInvalidTransition,
	domain.ErrForbidden,
	domain.ErrRequestNotAccepted,
	domain.ErrInvalidRating,
	domain.ErrValidation,
	store.ErrNotFound,
}

// IsExpected reports whether err is part of the error taxonomy rather than
// an internal failure.
func IsExpected(err error) bool {
	for _, target := range expected {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// translate maps store conditions onto the domain taxonomy. A lost
// compare-and-swap means another writer moved the entity first.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrConflict):
		return domain.ErrInvalidTransition
	case errors.Is(err, store.ErrPendingRequestExists):
		return domain.ErrDuplicatePending
	case errors.Is(err, store.ErrUserNotFound):
		return domain.ErrUserNotFound
	default:
		return err
	}
}

// wrap translates err and wraps it in a ServiceError unless it is expected.
func wrap(service, op string, err error) error {
	err = translate(err)
	if err == nil || IsExpected(err) {
		return err
	}
	return NewServiceError(service, op, err)
}
