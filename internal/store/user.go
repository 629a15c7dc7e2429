package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/domain"
)

// UserStore defines the interface for user profile persistence.
type UserStore interface {
	// Upsert creates the user or replaces its profile and both skill sets.
	// CreatedAt of an existing user is preserved.
	Upsert(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// List returns every user ordered by id. Used to warm the skill index.
	List(ctx context.Context) ([]*domain.User, error)
}
