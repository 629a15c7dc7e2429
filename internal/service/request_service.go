package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/domain"
	"github.com/phrazzld/skillswap-api/internal/domain/matching"
	"github.com/phrazzld/skillswap-api/internal/events"
	"github.com/phrazzld/skillswap-api/internal/store"
)

// CreateRequestInput describes a new pairing request from the acting user.
type CreateRequestInput struct {
	RecipientID uuid.UUID
	TeachSkills []string
	LearnSkills []string
	Message     *string
}

// AcceptResult is the accepted request and the session created with it.
type AcceptResult struct {
	Request *domain.PairingRequest
	Session *domain.LearningSession
}

// RequestService runs the pairing request protocol.
type RequestService interface {
	// Create opens a pending request from actorID.
	Create(ctx context.Context, actorID uuid.UUID, in CreateRequestInput) (*domain.PairingRequest, error)

	// Accept accepts a pending request as its recipient and schedules the
	// first session, from proposal when given and from the defaults otherwise.
	Accept(ctx context.Context, actorID, requestID uuid.UUID, proposal *domain.SessionDetails) (*AcceptResult, error)

	// Decline declines a pending request as its recipient.
	Decline(ctx context.Context, actorID, requestID uuid.UUID) (*domain.PairingRequest, error)

	// Cancel withdraws a pending request as its requester.
	Cancel(ctx context.Context, actorID, requestID uuid.UUID) (*domain.PairingRequest, error)

	// Get returns a request to one of its participants.
	Get(ctx context.Context, actorID, requestID uuid.UUID) (*domain.PairingRequest, error)

	// ListForUser lists the requests of actorID, newest first.
	ListForUser(ctx context.Context, actorID uuid.UUID, filter store.RequestFilter) ([]*domain.PairingRequest, error)
}

type requestService struct {
	base
	repos    store.Repositories
	tx       store.Transactor
	index    *matching.Index
	defaults SessionDefaults
}

// NewRequestService creates a RequestService.
func NewRequestService(
	repos store.Repositories,
	tx store.Transactor,
	index *matching.Index,
	defaults SessionDefaults,
	logger *slog.Logger,
	opts ...Option,
) (RequestService, error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if index == nil {
		return nil, domain.NewValidationError("index", "cannot be nil", domain.ErrValidation)
	}
	return &requestService{
		base:     newBase(logger, "request_service", opts),
		repos:    repos,
		tx:       tx,
		index:    index,
		defaults: defaults,
	}, nil
}

func (s *requestService) Create(
	ctx context.Context,
	actorID uuid.UUID,
	in CreateRequestInput,
) (*domain.PairingRequest, error) {
	log := s.log(ctx).With(
		slog.String("requester_id", actorID.String()),
		slog.String("recipient_id", in.RecipientID.String()))

	if actorID == in.RecipientID {
		return nil, domain.ErrSelfRequest
	}
	requester, ok := s.index.User(actorID)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	recipient, ok := s.index.User(in.RecipientID)
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	req, err := domain.NewPairingRequest(requester, recipient, in.TeachSkills, in.LearnSkills, in.Message, s.now())
	if err != nil {
		log.Debug("pairing request rejected", slog.String("error", err.Error()))
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos store.Repositories) error {
		return repos.Requests.Create(ctx, req)
	})
	if err != nil {
		return nil, s.fail(log, "create", err)
	}

	log.Info("pairing request created", slog.String("request_id", req.ID.String()))
	s.emit(ctx, events.TypeRequestCreated, requestPayload(req, actorID))
	return req, nil
}

func (s *requestService) Accept(
	ctx context.Context,
	actorID, requestID uuid.UUID,
	proposal *domain.SessionDetails,
) (*AcceptResult, error) {
	var result AcceptResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos store.Repositories) error {
		req, err := s.transition(ctx, repos, requestID, func(r *domain.PairingRequest) error {
			return r.Accept(actorID, s.now())
		})
		if err != nil {
			return err
		}

		details := s.defaults.details(s.now())
		if proposal != nil {
			details = *proposal
		}
		session, err := domain.NewLearningSession(req, details, s.now())
		if err != nil {
			return err
		}
		if err := repos.Sessions.Create(ctx, session); err != nil {
			return err
		}
		result = AcceptResult{Request: req, Session: session}
		return nil
	})
	if err != nil {
		return nil, s.fail(s.log(ctx), "accept", err)
	}

	s.log(ctx).Info("pairing request accepted",
		slog.String("request_id", requestID.String()),
		slog.String("session_id", result.Session.ID.String()))
	s.emit(ctx, events.TypeRequestAccepted, requestPayload(result.Request, actorID))
	s.emit(ctx, events.TypeSessionScheduled, sessionPayload(result.Session))
	return &result, nil
}

func (s *requestService) Decline(ctx context.Context, actorID, requestID uuid.UUID) (*domain.PairingRequest, error) {
	return s.simpleTransition(ctx, "decline", events.TypeRequestDeclined, actorID, requestID,
		func(r *domain.PairingRequest) error { return r.Decline(actorID, s.now()) })
}

func (s *requestService) Cancel(ctx context.Context, actorID, requestID uuid.UUID) (*domain.PairingRequest, error) {
	return s.simpleTransition(ctx, "cancel", events.TypeRequestCancelled, actorID, requestID,
		func(r *domain.PairingRequest) error { return r.Cancel(actorID, s.now()) })
}

func (s *requestService) simpleTransition(
	ctx context.Context,
	op, eventType string,
	actorID, requestID uuid.UUID,
	apply func(*domain.PairingRequest) error,
) (*domain.PairingRequest, error) {
	var req *domain.PairingRequest
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos store.Repositories) error {
		var err error
		req, err = s.transition(ctx, repos, requestID, apply)
		return err
	})
	if err != nil {
		return nil, s.fail(s.log(ctx), op, err)
	}

	s.log(ctx).Info("pairing request "+string(req.Status),
		slog.String("request_id", requestID.String()),
		slog.String("actor_id", actorID.String()))
	s.emit(ctx, eventType, requestPayload(req, actorID))
	return req, nil
}

// transition locks the request, applies the domain transition and writes
// the new status conditionally on the status it was read with.
func (s *requestService) transition(
	ctx context.Context,
	repos store.Repositories,
	requestID uuid.UUID,
	apply func(*domain.PairingRequest) error,
) (*domain.PairingRequest, error) {
	req, err := repos.Requests.GetByIDForUpdate(ctx, requestID)
	if err != nil {
		return nil, err
	}
	from := req.Status
	if err := apply(req); err != nil {
		return nil, err
	}
	if err := repos.Requests.UpdateStatus(ctx, req.ID, from, req.Status, req.UpdatedAt); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *requestService) Get(ctx context.Context, actorID, requestID uuid.UUID) (*domain.PairingRequest, error) {
	req, err := s.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, s.fail(s.log(ctx), "get", err)
	}
	if !req.IsParticipant(actorID) {
		return nil, domain.ErrForbidden
	}
	return req, nil
}

func (s *requestService) ListForUser(
	ctx context.Context,
	actorID uuid.UUID,
	filter store.RequestFilter,
) ([]*domain.PairingRequest, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, domain.NewValidationError("status", "is not a known request status", domain.ErrInvalidRequest)
	}
	reqs, err := s.repos.Requests.ListForUser(ctx, actorID, filter)
	if err != nil {
		return nil, s.fail(s.log(ctx), "list", err)
	}
	return reqs, nil
}

func (s *requestService) fail(log *slog.Logger, op string, err error) error {
	err = wrap("request", op, err)
	if IsExpected(err) {
		log.Debug("request operation rejected", slog.String("op", op), slog.String("error", err.Error()))
	} else {
		log.Error("request operation failed", slog.String("op", op), slog.String("error", err.Error()))
	}
	return err
}
