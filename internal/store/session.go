package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/domain"
)

// SessionStore defines the interface for learning session persistence.
// Participants are stored with their session and are never deleted.
type SessionStore interface {
	// Create saves a new session together with its participant rows.
	Create(ctx context.Context, session *domain.LearningSession) error

	// GetByID retrieves a session and its participants.
	// Returns ErrSessionNotFound if the session does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LearningSession, error)

	// GetByIDForUpdate is GetByID that also locks the session row until the
	// enclosing transaction ends.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.LearningSession, error)

	// UpdateStatus moves the session from expected to next.
	// Returns ErrConflict if the stored status is no longer expected.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next domain.SessionStatus, updatedAt time.Time) error

	// UpdateParticipant writes the attendance fields of one participant row.
	// Returns ErrSessionNotFound if the row does not exist.
	UpdateParticipant(ctx context.Context, sessionID uuid.UUID, p domain.SessionParticipant) error

	// ListByRequest returns the sessions of a request ordered by scheduled date.
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*domain.LearningSession, error)

	// ListDueForCompletion returns up to limit scheduled sessions whose
	// scheduled end is at or before now, oldest first.
	ListDueForCompletion(ctx context.Context, now time.Time, limit int) ([]*domain.LearningSession, error)
}
