package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/domain"
	"github.com/phrazzld/skillswap-api/internal/events"
	"github.com/phrazzld/skillswap-api/internal/store"
)

// AttendanceInput is a participant's own attendance submission.
type AttendanceInput struct {
	Attended bool
	Feedback *string
	Rating   *int
}

// SessionService manages the sessions of accepted requests.
type SessionService interface {
	// Schedule adds a session to an accepted request. The actor must be a
	// participant of the request.
	Schedule(ctx context.Context, actorID, requestID uuid.UUID, details domain.SessionDetails) (*domain.LearningSession, error)

	// Cancel cancels a scheduled session on behalf of a participant.
	Cancel(ctx context.Context, actorID, sessionID uuid.UUID) (*domain.LearningSession, error)

	// RecordAttendance stores the actor's attendance, feedback and rating.
	RecordAttendance(ctx context.Context, actorID, sessionID uuid.UUID, in AttendanceInput) (*domain.SessionParticipant, error)

	// Complete completes a scheduled session without an acting user.
	Complete(ctx context.Context, sessionID uuid.UUID) (*domain.LearningSession, error)

	// CompleteByParticipant completes a scheduled session on behalf of a participant.
	CompleteByParticipant(ctx context.Context, actorID, sessionID uuid.UUID) (*domain.LearningSession, error)

	// Get returns a session to one of its participants.
	Get(ctx context.Context, actorID, sessionID uuid.UUID) (*domain.LearningSession, error)

	// ListForRequest lists the sessions of a request to one of its participants.
	ListForRequest(ctx context.Context, actorID, requestID uuid.UUID) ([]*domain.LearningSession, error)

	// ListDue lists scheduled sessions that ended at or before now.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.LearningSession, error)
}

type sessionService struct {
	base
	repos store.Repositories
	tx    store.Transactor
}

// NewSessionService creates a SessionService.
func NewSessionService(
	repos store.Repositories,
	tx store.Transactor,
	logger *slog.Logger,
	opts ...Option,
) (SessionService, error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	return &sessionService{
		base:  newBase(logger, "session_service", opts),
		repos: repos,
		tx:    tx,
	}, nil
}

func (s *sessionService) Schedule(
	ctx context.Context,
	actorID, requestID uuid.UUID,
	details domain.SessionDetails,
) (*domain.LearningSession, error) {
	var session *domain.LearningSession
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos store.Repositories) error {
		// The lock keeps the request from changing while the session is added.
		req, err := repos.Requests.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if !req.IsParticipant(actorID) {
			return domain.ErrForbidden
		}
		session, err = domain.NewLearningSession(req, details, s.now())
		if err != nil {
			return err
		}
		return repos.Sessions.Create(ctx, session)
	})
	if err != nil {
		return nil, s.fail(ctx, "schedule", err)
	}

	s.log(ctx).Info("session scheduled",
		slog.String("session_id", session.ID.String()),
		slog.String("request_id", requestID.String()),
		slog.Time("scheduled_date", session.ScheduledDate))
	s.emit(ctx, events.TypeSessionScheduled, sessionPayload(session))
	return session, nil
}

func (s *sessionService) Cancel(ctx context.Context, actorID, sessionID uuid.UUID) (*domain.LearningSession, error) {
	return s.transition(ctx, "cancel", events.TypeSessionCancelled, sessionID,
		func(sess *domain.LearningSession) error { return sess.Cancel(actorID, s.now()) })
}

func (s *sessionService) Complete(ctx context.Context, sessionID uuid.UUID) (*domain.LearningSession, error) {
	return s.transition(ctx, "complete", events.TypeSessionCompleted, sessionID,
		func(sess *domain.LearningSession) error { return sess.Complete(s.now()) })
}

func (s *sessionService) CompleteByParticipant(
	ctx context.Context,
	actorID, sessionID uuid.UUID,
) (*domain.LearningSession, error) {
	return s.transition(ctx, "complete", events.TypeSessionCompleted, sessionID,
		func(sess *domain.LearningSession) error { return sess.CompleteBy(actorID, s.now()) })
}

// transition locks the session, applies the domain transition and writes
// the new status conditionally on the status it was read with.
func (s *sessionService) transition(
	ctx context.Context,
	op, eventType string,
	sessionID uuid.UUID,
	apply func(*domain.LearningSession) error,
) (*domain.LearningSession, error) {
	var session *domain.LearningSession
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos store.Repositories) error {
		var err error
		session, err = repos.Sessions.GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		from := session.Status
		if err := apply(session); err != nil {
			return err
		}
		return repos.Sessions.UpdateStatus(ctx, session.ID, from, session.Status, session.UpdatedAt)
	})
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	s.log(ctx).Info("session "+string(session.Status), slog.String("session_id", sessionID.String()))
	s.emit(ctx, eventType, sessionPayload(session))
	return session, nil
}

func (s *sessionService) RecordAttendance(
	ctx context.Context,
	actorID, sessionID uuid.UUID,
	in AttendanceInput,
) (*domain.SessionParticipant, error) {
	var row domain.SessionParticipant
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos store.Repositories) error {
		session, err := repos.Sessions.GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		p, err := session.RecordAttendance(domain.Attendance{
			UserID:   actorID,
			Attended: in.Attended,
			Feedback: in.Feedback,
			Rating:   in.Rating,
		}, s.now())
		if err != nil {
			return err
		}
		row = *p
		return repos.Sessions.UpdateParticipant(ctx, session.ID, row)
	})
	if err != nil {
		return nil, s.fail(ctx, "record_attendance", err)
	}

	s.log(ctx).Info("attendance recorded",
		slog.String("session_id", sessionID.String()),
		slog.String("user_id", actorID.String()),
		slog.Bool("attended", row.Attended))
	s.emit(ctx, events.TypeAttendanceRecorded, events.AttendancePayload{
		SessionID: sessionID,
		UserID:    actorID,
		Attended:  row.Attended,
		Rating:    row.Rating,
	})
	return &row, nil
}

func (s *sessionService) Get(ctx context.Context, actorID, sessionID uuid.UUID) (*domain.LearningSession, error) {
	session, err := s.repos.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, s.fail(ctx, "get", err)
	}
	if !session.IsParticipant(actorID) {
		return nil, domain.ErrForbidden
	}
	return session, nil
}

func (s *sessionService) ListForRequest(
	ctx context.Context,
	actorID, requestID uuid.UUID,
) ([]*domain.LearningSession, error) {
	req, err := s.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, s.fail(ctx, "list_for_request", err)
	}
	if !req.IsParticipant(actorID) {
		return nil, domain.ErrForbidden
	}
	sessions, err := s.repos.Sessions.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, s.fail(ctx, "list_for_request", err)
	}
	return sessions, nil
}

func (s *sessionService) ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.LearningSession, error) {
	sessions, err := s.repos.Sessions.ListDueForCompletion(ctx, now, limit)
	if err != nil {
		return nil, s.fail(ctx, "list_due", err)
	}
	return sessions, nil
}

func (s *sessionService) fail(ctx context.Context, op string, err error) error {
	err = wrap("session", op, err)
	log := s.log(ctx)
	if IsExpected(err) {
		log.Debug("session operation rejected", slog.String("op", op), slog.String("error", err.Error()))
	} else {
		log.Error("session operation failed", slog.String("op", op), slog.String("error", err.Error()))
	}
	return err
}
