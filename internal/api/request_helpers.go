package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/api/shared"
	"github.com/phrazzld/skillswap-api/internal/domain"
	"github.com/phrazzld/skillswap-api/internal/platform/logger"
)

// requireUserID returns the authenticated user ID, writing a 401 response
// when the request carries none.
func requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		logger.FromContext(r.Context()).Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, shared.CodeUnauthorized,
			"User ID not found or invalid")
		return uuid.Nil, false
	}
	return userID, true
}

// getPathUUID parses the UUID in path parameter paramName.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		return uuid.Nil, badInput("%s is required", paramName)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, badInput("%s has invalid format", paramName)
	}
	return id, nil
}

// handleUserIDAndPathUUID extracts the authenticated user and the path UUID
// named paramName. On failure the error response is written and ok is false.
func handleUserIDAndPathUUID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
) (userID, pathID uuid.UUID, ok bool) {
	userID, ok = requireUserID(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	pathID, err := getPathUUID(r, paramName)
	if err != nil {
		logger.FromContext(r.Context()).Debug("invalid path parameter",
			slog.String("param_name", paramName),
			slog.String("value", chi.URLParam(r, paramName)))
		HandleAPIError(w, r, err, "")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, pathID, true
}

// decodeAndValidate decodes the JSON body into v and validates it. When
// optional is set an empty body leaves v untouched. On failure the error
// response is written and false is returned.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	if err := shared.DecodeJSON(w, r, v); err != nil {
		if optional && errors.Is(err, shared.ErrEmptyBody) {
			return true
		}
		if !errors.Is(err, shared.ErrEmptyBody) {
			err = badInput("invalid request format")
		}
		HandleAPIError(w, r, err, "")
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		HandleAPIError(w, r, err, "")
		return false
	}
	return true
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badInput("%s must be an integer", name)
	}
	return n, nil
}

// toSessionDetails converts a proposal into sanitized domain details.
func toSessionDetails(p *SessionProposalRequest) (domain.SessionDetails, error) {
	date, err := time.Parse(time.RFC3339, p.ScheduledDate)
	if err != nil {
		return domain.SessionDetails{}, domain.NewValidationError(
			"scheduled_date", "must be an RFC 3339 timestamp", domain.ErrInvalidRequest)
	}
	return domain.SessionDetails{
		ScheduledDate: date.UTC(),
		Duration:      time.Duration(p.DurationMinutes) * time.Minute,
		Location:      shared.SanitizeText(p.Location),
		Notes:         shared.SanitizeOptional(p.Notes),
	}, nil
}
