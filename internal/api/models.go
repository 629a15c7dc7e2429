package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/domain"
)

// Request bodies.

// ProfileRequest is the body of PUT /users/me.
type ProfileRequest struct {
	DisplayName string   `json:"display_name" validate:"required,max=100"`
	Bio         string   `json:"bio"          validate:"max=2000"`
	TeachSkills []string `json:"teach_skills" validate:"max=50"`
	LearnSkills []string `json:"learn_skills" validate:"max=50"`
}

// CreatePairingRequestRequest is the body of POST /requests.
type CreatePairingRequestRequest struct {
	RecipientID string   `json:"recipient_id" validate:"required,uuid"`
	TeachSkills []string `json:"teach_skills" validate:"max=50"`
	LearnSkills []string `json:"learn_skills" validate:"max=50"`
	Message     *string  `json:"message"      validate:"omitempty,max=2000"`
}

// SessionProposalRequest proposes the date, length and place of a session.
type SessionProposalRequest struct {
	// ScheduledDate is an RFC 3339 timestamp
	ScheduledDate   string  `json:"scheduled_date"   validate:"required"`
	DurationMinutes int     `json:"duration_minutes" validate:"required,min=1,max=1440"`
	Location        string  `json:"location"         validate:"required,max=200"`
	Notes           *string `json:"notes"            validate:"omitempty,max=2000"`
}

// AcceptRequest is the optional body of POST /requests/{id}/accept. Without
// a session proposal the first session gets the configured defaults.
type AcceptRequest struct {
	Session *SessionProposalRequest `json:"session" validate:"omitempty"`
}

// AttendanceRequest is the body of POST /sessions/{id}/attendance.
type AttendanceRequest struct {
	Attended *bool   `json:"attended" validate:"required"`
	Feedback *string `json:"feedback" validate:"omitempty,max=2000"`
	Rating   *int    `json:"rating"`
}

// Responses. Timestamps are RFC 3339 strings in UTC.

// ProfileResponse is a user profile as returned to its owner.
type ProfileResponse struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio"`
	TeachSkills []string  `json:"teach_skills"`
	LearnSkills []string  `json:"learn_skills"`
	CreatedAt   string    `json:"created_at,omitempty"`
	UpdatedAt   string    `json:"updated_at,omitempty"`
}

// MatchResponse is one ranked match suggestion.
type MatchResponse struct {
	Candidate           ProfileResponse `json:"candidate"`
	MatchingTeachSkills []string        `json:"matching_teach_skills"`
	MatchingLearnSkills []string        `json:"matching_learn_skills"`
	MatchScore          float64         `json:"match_score"`
}

// MatchesResponse wraps the result of GET /users/me/matches.
type MatchesResponse struct {
	Matches []MatchResponse `json:"matches"`
}

// PairingRequestResponse is a pairing request.
type PairingRequestResponse struct {
	ID          uuid.UUID `json:"id"`
	RequesterID uuid.UUID `json:"requester_id"`
	RecipientID uuid.UUID `json:"recipient_id"`
	TeachSkills []string  `json:"teach_skills"`
	LearnSkills []string  `json:"learn_skills"`
	Status      string    `json:"status"`
	Message     *string   `json:"message,omitempty"`
	CreatedAt   string    `json:"created_at"`
	UpdatedAt   string    `json:"updated_at"`
}

// PairingRequestsResponse wraps a request listing.
type PairingRequestsResponse struct {
	Requests []PairingRequestResponse `json:"requests"`
}

// AcceptResponse is the accepted request with its first session.
type AcceptResponse struct {
	Request PairingRequestResponse `json:"request"`
	Session SessionResponse        `json:"session"`
}

// ParticipantResponse is one participant row of a session.
type ParticipantResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Attended  bool      `json:"attended"`
	Feedback  *string   `json:"feedback,omitempty"`
	Rating    *int      `json:"rating,omitempty"`
	UpdatedAt string    `json:"updated_at"`
}

// SessionResponse is a learning session.
type SessionResponse struct {
	ID              uuid.UUID             `json:"id"`
	RequestID       uuid.UUID             `json:"request_id"`
	ScheduledDate   string                `json:"scheduled_date"`
	DurationMinutes int                   `json:"duration_minutes"`
	Location        string                `json:"location"`
	Status          string                `json:"status"`
	Notes           *string               `json:"notes,omitempty"`
	Participants    []ParticipantResponse `json:"participants"`
	CreatedAt       string                `json:"created_at"`
	UpdatedAt       string                `json:"updated_at"`
}

// SessionsResponse wraps a session listing.
type SessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// skills never encodes as null.
func skills(s domain.SkillSet) []string {
	if s == nil {
		return []string{}
	}
	return []string(s)
}

func userToResponse(u *domain.User) ProfileResponse {
	return ProfileResponse{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		TeachSkills: skills(u.TeachSkills),
		LearnSkills: skills(u.LearnSkills),
		CreatedAt:   formatTime(u.CreatedAt),
		UpdatedAt:   formatTime(u.UpdatedAt),
	}
}

func matchesToResponse(matches []domain.SuggestedMatch) MatchesResponse {
	resp := MatchesResponse{Matches: make([]MatchResponse, 0, len(matches))}
	for _, m := range matches {
		resp.Matches = append(resp.Matches, MatchResponse{
			Candidate: ProfileResponse{
				ID:          m.Candidate.ID,
				DisplayName: m.Candidate.DisplayName,
				Bio:         m.Candidate.Bio,
				TeachSkills: skills(m.Candidate.TeachSkills),
				LearnSkills: skills(m.Candidate.LearnSkills),
			},
			MatchingTeachSkills: skills(m.MatchingTeachSkills),
			MatchingLearnSkills: skills(m.MatchingLearnSkills),
			MatchScore:          m.MatchScore,
		})
	}
	return resp
}

func requestToResponse(r *domain.PairingRequest) PairingRequestResponse {
	return PairingRequestResponse{
		ID:          r.ID,
		RequesterID: r.RequesterID,
		RecipientID: r.RecipientID,
		TeachSkills: skills(r.TeachSkills),
		LearnSkills: skills(r.LearnSkills),
		Status:      string(r.Status),
		Message:     r.Message,
		CreatedAt:   formatTime(r.CreatedAt),
		UpdatedAt:   formatTime(r.UpdatedAt),
	}
}

func requestsToResponse(reqs []*domain.PairingRequest) PairingRequestsResponse {
	resp := PairingRequestsResponse{Requests: make([]PairingRequestResponse, 0, len(reqs))}
	for _, r := range reqs {
		resp.Requests = append(resp.Requests, requestToResponse(r))
	}
	return resp
}

func participantToResponse(p *domain.SessionParticipant) ParticipantResponse {
	return ParticipantResponse{
		UserID:    p.UserID,
		Attended:  p.Attended,
		Feedback:  p.Feedback,
		Rating:    p.Rating,
		UpdatedAt: formatTime(p.UpdatedAt),
	}
}

func sessionToResponse(s *domain.LearningSession) SessionResponse {
	participants := make([]ParticipantResponse, 0, len(s.Participants))
	for i := range s.Participants {
		participants = append(participants, participantToResponse(&s.Participants[i]))
	}
	return SessionResponse{
		ID:              s.ID,
		RequestID:       s.RequestID,
		ScheduledDate:   formatTime(s.ScheduledDate),
		DurationMinutes: int(s.Duration / time.Minute),
		Location:        s.Location,
		Status:          string(s.Status),
		Notes:           s.Notes,
		Participants:    participants,
		CreatedAt:       formatTime(s.CreatedAt),
		UpdatedAt:       formatTime(s.UpdatedAt),
	}
}

func sessionsToResponse(sessions []*domain.LearningSession) SessionsResponse {
	resp := SessionsResponse{Sessions: make([]SessionResponse, 0, len(sessions))}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, sessionToResponse(s))
	}
	return resp
}
