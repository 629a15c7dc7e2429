package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/skillswap-api/internal/api/shared"
	"github.com/phrazzld/skillswap-api/internal/platform/logger"
	"github.com/phrazzld/skillswap-api/internal/service"
)

// UserHandler serves the profile and match endpoints of the current user.
type UserHandler struct {
	users   service.UserService
	matches service.MatchService
	logger  *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users service.UserService, matches service.MatchService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for UserHandler")
	}
	return &UserHandler{
		users:   users,
		matches: matches,
		logger:  logger.With(slog.String("component", "user_handler")),
	}
}

// GetProfile handles GET /users/me.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetProfile(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get profile")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// PutProfile handles PUT /users/me. It creates the profile on first use.
func (h *UserHandler) PutProfile(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req ProfileRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	user, err := h.users.UpsertProfile(r.Context(), userID, service.ProfileInput{
		DisplayName: shared.SanitizeText(req.DisplayName),
		Bio:         shared.SanitizeText(req.Bio),
		TeachSkills: req.TeachSkills,
		LearnSkills: req.LearnSkills,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to save profile")
		return
	}

	log.Debug("profile saved",
		slog.Int("teach_skills", len(user.TeachSkills)),
		slog.Int("learn_skills", len(user.LearnSkills)))
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// GetMatches handles GET /users/me/matches?limit=n.
func (h *UserHandler) GetMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if limit < 0 {
		HandleAPIError(w, r, badInput("limit cannot be negative"), "")
		return
	}

	matches, err := h.matches.FindMatches(r.Context(), userID, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to find matches")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, matchesToResponse(matches))
}
