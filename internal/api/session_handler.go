package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/api/shared"
	"github.com/phrazzld/skillswap-api/internal/domain"
	"github.com/phrazzld/skillswap-api/internal/platform/logger"
	"github.com/phrazzld/skillswap-api/internal/service"
)

// SessionHandler serves the learning session endpoints.
type SessionHandler struct {
	sessions service.SessionService
	logger   *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions service.SessionService, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for SessionHandler")
	}
	return &SessionHandler{
		sessions: sessions,
		logger:   logger.With(slog.String("component", "session_handler")),
	}
}

// ListForRequest handles GET /requests/{id}/sessions.
func (h *SessionHandler) ListForRequest(w http.ResponseWriter, r *http.Request) {
	userID, requestID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	sessions, err := h.sessions.ListForRequest(r.Context(), userID, requestID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list sessions")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, sessionsToResponse(sessions))
}

// Schedule handles POST /requests/{id}/sessions.
func (h *SessionHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, requestID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req SessionProposalRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}
	details, err := toSessionDetails(&req)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	session, err := h.sessions.Schedule(r.Context(), userID, requestID, details)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to schedule session")
		return
	}

	log.Debug("session scheduled", slog.String("session_id", session.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, sessionToResponse(session))
}

// Get handles GET /sessions/{id}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.sessionOp(w, r, h.sessions.Get, "Failed to get session")
}

// Cancel handles POST /sessions/{id}/cancel.
func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.sessionOp(w, r, h.sessions.Cancel, "Failed to cancel session")
}

// Complete handles POST /sessions/{id}/complete.
func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.sessionOp(w, r, h.sessions.CompleteByParticipant, "Failed to complete session")
}

// RecordAttendance handles POST /sessions/{id}/attendance. The caller
// records their own attendance only.
func (h *SessionHandler) RecordAttendance(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req AttendanceRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	row, err := h.sessions.RecordAttendance(r.Context(), userID, sessionID, service.AttendanceInput{
		Attended: *req.Attended,
		Feedback: shared.SanitizeOptional(req.Feedback),
		Rating:   req.Rating,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record attendance")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, participantToResponse(row))
}

func (h *SessionHandler) sessionOp(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, actorID, sessionID uuid.UUID) (*domain.LearningSession, error),
	failure string,
) {
	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	session, err := apply(r.Context(), userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, failure)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, sessionToResponse(session))
}
