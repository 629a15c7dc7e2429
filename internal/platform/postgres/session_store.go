package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/domain"
	"github.com/phrazzld/skillswap-api/internal/platform/logger"
	"github.com/phrazzld/skillswap-api/internal/store"
)

// selectSessionRows returns one row per participant, ordered so rows of the
// same session are adjacent.
const selectSessionRows = `
	SELECT s.id, s.request_id, s.scheduled_date, s.duration_minutes, s.location, s.status, s.notes,
		s.created_at, s.updated_at,
		p.user_id, p.attended, p.feedback, p.rating, p.updated_at
	FROM learning_sessions s
	JOIN session_participants p ON p.session_id = s.id
`

// PostgresSessionStore implements the store.SessionStore interface using a
// PostgreSQL database as the storage backend.
type PostgresSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSessionStore creates a learning session store on db.
// If logger is nil, slog.Default is used.
func NewPostgresSessionStore(db store.DBTX, logger *slog.Logger) *PostgresSessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

var _ store.SessionStore = (*PostgresSessionStore)(nil)

// Create implements store.SessionStore.Create. The session row and the
// participant rows are separate statements, so callers run it inside a
// transaction.
func (s *PostgresSessionStore) Create(ctx context.Context, session *domain.LearningSession) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO learning_sessions
			(id, request_id, scheduled_date, duration_minutes, location, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, session.ID, session.RequestID, session.ScheduledDate, durationMinutes(session.Duration),
		session.Location, string(session.Status), session.Notes, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		log.Error("failed to create learning session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()),
			slog.String("request_id", session.RequestID.String()))
		return store.NewStoreError("session", "create", "insert failed", MapError(err))
	}

	for i, p := range session.Participants {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO session_participants
				(session_id, user_id, position, attended, feedback, rating, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, session.ID, p.UserID, i, p.Attended, p.Feedback, p.Rating, p.UpdatedAt)
		if err != nil {
			log.Error("failed to create session participant",
				slog.String("error", err.Error()),
				slog.String("session_id", session.ID.String()),
				slog.String("user_id", p.UserID.String()))
			return store.NewStoreError("session", "create", "participant insert failed", MapError(err))
		}
	}

	log.Debug("learning session created",
		slog.String("session_id", session.ID.String()),
		slog.Time("scheduled_date", session.ScheduledDate))
	return nil
}

// GetByID implements store.SessionStore.GetByID.
func (s *PostgresSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.LearningSession, error) {
	return s.getOne(ctx, id, "")
}

// GetByIDForUpdate implements store.SessionStore.GetByIDForUpdate.
func (s *PostgresSessionStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.LearningSession, error) {
	return s.getOne(ctx, id, " FOR UPDATE OF s")
}

func (s *PostgresSessionStore) getOne(ctx context.Context, id uuid.UUID, lock string) (*domain.LearningSession, error) {
	sessions, err := s.query(ctx, "get", `WHERE s.id = $1 ORDER BY p.position`+lock, id)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, store.ErrSessionNotFound
	}
	return sessions[0], nil
}

// UpdateStatus implements store.SessionStore.UpdateStatus as a
// compare-and-swap on the status column.
func (s *PostgresSessionStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	expected, next domain.SessionStatus,
	updatedAt time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE learning_sessions SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`, string(next), updatedAt, id, string(expected))
	if err != nil {
		log.Error("failed to update session status",
			slog.String("error", err.Error()),
			slog.String("session_id", id.String()))
		return store.NewStoreError("session", "update_status", "update failed", MapError(err))
	}
	n, err := rowsAffected(result)
	if err != nil {
		return store.NewStoreError("session", "update_status", "update failed", err)
	}
	if n == 0 {
		return store.ErrConflict
	}
	return nil
}

// UpdateParticipant implements store.SessionStore.UpdateParticipant.
func (s *PostgresSessionStore) UpdateParticipant(
	ctx context.Context,
	sessionID uuid.UUID,
	p domain.SessionParticipant,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE session_participants SET attended = $1, feedback = $2, rating = $3, updated_at = $4
		WHERE session_id = $5 AND user_id = $6
	`, p.Attended, p.Feedback, p.Rating, p.UpdatedAt, sessionID, p.UserID)
	if err != nil {
		log.Error("failed to update session participant",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()),
			slog.String("user_id", p.UserID.String()))
		return store.NewStoreError("session", "update_participant", "update failed", MapError(err))
	}
	n, err := rowsAffected(result)
	if err != nil {
		return store.NewStoreError("session", "update_participant", "update failed", err)
	}
	if n == 0 {
		return store.ErrSessionNotFound
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE learning_sessions SET updated_at = $1 WHERE id = $2`, p.UpdatedAt, sessionID); err != nil {
		return store.NewStoreError("session", "update_participant", "touch failed", MapError(err))
	}
	return nil
}

// ListByRequest implements store.SessionStore.ListByRequest.
func (s *PostgresSessionStore) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*domain.LearningSession, error) {
	return s.query(ctx, "list",
		`WHERE s.request_id = $1 ORDER BY s.scheduled_date, s.id, p.position`, requestID)
}

// ListDueForCompletion implements store.SessionStore.ListDueForCompletion.
func (s *PostgresSessionStore) ListDueForCompletion(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*domain.LearningSession, error) {
	return s.query(ctx, "list_due", `
		WHERE s.id IN (
			SELECT id FROM learning_sessions
			WHERE status = 'scheduled'
				AND scheduled_date + make_interval(mins => duration_minutes) <= $1
			ORDER BY scheduled_date, id
			LIMIT $2
		)
		ORDER BY s.scheduled_date, s.id, p.position`, now, limit)
}

// query runs selectSessionRows with the given suffix and folds participant
// rows into their sessions, preserving row order.
func (s *PostgresSessionStore) query(
	ctx context.Context,
	operation, suffix string,
	args ...any,
) ([]*domain.LearningSession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, selectSessionRows+suffix, args...)
	if err != nil {
		log.Error("failed to query learning sessions",
			slog.String("error", err.Error()),
			slog.String("operation", operation))
		return nil, store.NewStoreError("session", operation, "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	sessions := []*domain.LearningSession{}
	var current *domain.LearningSession
	for rows.Next() {
		var (
			sess    domain.LearningSession
			minutes int
			status  string
			p       domain.SessionParticipant
		)
		err := rows.Scan(&sess.ID, &sess.RequestID, &sess.ScheduledDate, &minutes, &sess.Location,
			&status, &sess.Notes, &sess.CreatedAt, &sess.UpdatedAt,
			&p.UserID, &p.Attended, &p.Feedback, &p.Rating, &p.UpdatedAt)
		if err != nil {
			return nil, store.NewStoreError("session", operation, "scan failed", err)
		}
		p.UpdatedAt = p.UpdatedAt.UTC()

		if current == nil || current.ID != sess.ID {
			sess.Duration = time.Duration(minutes) * time.Minute
			sess.Status = domain.SessionStatus(status)
			sess.ScheduledDate = sess.ScheduledDate.UTC()
			sess.CreatedAt = sess.CreatedAt.UTC()
			sess.UpdatedAt = sess.UpdatedAt.UTC()
			current = &sess
			sessions = append(sessions, current)
		}
		current.Participants = append(current.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("session", operation, "row iteration failed", MapError(err))
	}
	return sessions, nil
}

// durationMinutes converts a validated session duration, which is always a
// whole number of minutes, to the column value.
func durationMinutes(d time.Duration) int {
	return int(d / time.Minute)
}
