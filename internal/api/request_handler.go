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
	"github.com/phrazzld/skillswap-api/internal/store"
)

// RequestHandler serves the pairing request endpoints.
type RequestHandler struct {
	requests service.RequestService
	logger   *slog.Logger
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(requests service.RequestService, logger *slog.Logger) *RequestHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for RequestHandler")
	}
	return &RequestHandler{
		requests: requests,
		logger:   logger.With(slog.String("component", "request_handler")),
	}
}

// Create handles POST /requests.
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req CreatePairingRequestRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	recipientID, err := uuid.Parse(req.RecipientID)
	if err != nil {
		HandleAPIError(w, r, badInput("recipient_id has invalid format"), "")
		return
	}

	created, err := h.requests.Create(r.Context(), userID, service.CreateRequestInput{
		RecipientID: recipientID,
		TeachSkills: req.TeachSkills,
		LearnSkills: req.LearnSkills,
		Message:     shared.SanitizeOptional(req.Message),
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create pairing request")
		return
	}

	log.Debug("pairing request created", slog.String("request_id", created.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, requestToResponse(created))
}

// List handles GET /requests?role=requester|recipient&status=...
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filter := store.RequestFilter{
		Role:   store.RequestRole(query.Get("role")),
		Status: domain.RequestStatus(query.Get("status")),
	}
	switch filter.Role {
	case store.RoleAny, store.RoleRequester, store.RoleRecipient:
	default:
		HandleAPIError(w, r, domain.NewValidationError("role", "must be requester or recipient",
			domain.ErrInvalidRequest), "")
		return
	}

	reqs, err := h.requests.ListForUser(r.Context(), userID, filter)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list pairing requests")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, requestsToResponse(reqs))
}

// Get handles GET /requests/{id}.
func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, requestID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	req, err := h.requests.Get(r.Context(), userID, requestID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get pairing request")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, requestToResponse(req))
}

// Accept handles POST /requests/{id}/accept. The body may propose the first
// session; without one the configured defaults apply.
func (h *RequestHandler) Accept(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, requestID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var body AcceptRequest
	if !decodeAndValidate(w, r, &body, true) {
		return
	}

	var proposal *domain.SessionDetails
	if body.Session != nil {
		details, err := toSessionDetails(body.Session)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		proposal = &details
	}

	result, err := h.requests.Accept(r.Context(), userID, requestID, proposal)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to accept pairing request")
		return
	}

	log.Debug("pairing request accepted",
		slog.String("request_id", result.Request.ID.String()),
		slog.String("session_id", result.Session.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, AcceptResponse{
		Request: requestToResponse(result.Request),
		Session: sessionToResponse(result.Session),
	})
}

// Decline handles POST /requests/{id}/decline.
func (h *RequestHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.requests.Decline, "Failed to decline pairing request")
}

// Cancel handles POST /requests/{id}/cancel.
func (h *RequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.requests.Cancel, "Failed to cancel pairing request")
}

func (h *RequestHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, actorID, requestID uuid.UUID) (*domain.PairingRequest, error),
	failure string,
) {
	userID, requestID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	req, err := apply(r.Context(), userID, requestID)
	if err != nil {
		HandleAPIError(w, r, err, failure)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, requestToResponse(req))
}
