package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/domain"
)

// RequestRole selects which side of a pairing request a listing matches.
type RequestRole string

// Request roles accepted by RequestFilter.
const (
	RoleAny       RequestRole = ""
	RoleRequester RequestRole = "requester"
	RoleRecipient RequestRole = "recipient"
)

// RequestFilter narrows PairingRequestStore.ListForUser. Zero values match
// everything.
type RequestFilter struct {
	Role   RequestRole
	Status domain.RequestStatus
}

// PairingRequestStore defines the interface for pairing request persistence.
type PairingRequestStore interface {
	// Create saves a new pending request.
	// Returns ErrDuplicate if the pair already has a pending request.
	Create(ctx context.Context, req *domain.PairingRequest) error

	// GetByID retrieves a request by its unique ID.
	// Returns ErrRequestNotFound if the request does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PairingRequest, error)

	// GetByIDForUpdate is GetByID that also locks the row until the
	// enclosing transaction ends.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.PairingRequest, error)

	// UpdateStatus moves the request from expected to next.
	// Returns ErrConflict if the stored status is no longer expected.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next domain.RequestStatus, updatedAt time.Time) error

	// ListForUser returns the requests userID takes part in, newest first.
	ListForUser(ctx context.Context, userID uuid.UUID, filter RequestFilter) ([]*domain.PairingRequest, error)
}
