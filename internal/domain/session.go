package domain

import (
	"time"

	"github.com/google/uuid"
)

// Rating bounds for session feedback, inclusive.
const (
	MinRating = 1
	MaxRating = 5
)

// SessionStatus is the lifecycle status of a LearningSession.
type SessionStatus string

// Learning session statuses. Completed and cancelled are terminal.
const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// IsValid reports whether s is one of the defined statuses.
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusScheduled, SessionStatusCompleted, SessionStatusCancelled:
		return true
	default:
		return false
	}
}

// SessionDetails are the caller-supplied parts of a session.
type SessionDetails struct {
	ScheduledDate time.Time
	Duration      time.Duration
	Location      string
	Notes         *string
}

// Validate checks the details of a proposed session.
func (d SessionDetails) Validate() error {
	if d.ScheduledDate.IsZero() {
		return ErrMissingDate
	}
	if d.Duration < time.Minute || d.Duration%time.Minute != 0 {
		return ErrInvalidDuration
	}
	if d.Location == "" {
		return ErrEmptyLocation
	}
	return nil
}

// SessionParticipant is one user's attendance and feedback record in a session.
type SessionParticipant struct {
	UserID    uuid.UUID `json:"user_id"`
	Attended  bool      `json:"attended"`
	Feedback  *string   `json:"feedback,omitempty"`
	Rating    *int      `json:"rating,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LearningSession is one scheduled meeting fulfilling an accepted request.
type LearningSession struct {
	ID            uuid.UUID            `json:"id"`
	RequestID     uuid.UUID            `json:"request_id"`
	ScheduledDate time.Time            `json:"scheduled_date"`
	Duration      time.Duration        `json:"-"`
	Location      string               `json:"location"`
	Status        SessionStatus        `json:"status"`
	Notes         *string              `json:"notes,omitempty"`
	Participants  []SessionParticipant `json:"participants"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// NewLearningSession schedules a session for request with one participant
// row each for the requester and the recipient.
func NewLearningSession(request *PairingRequest, details SessionDetails, now time.Time) (*LearningSession, error) {
	if request.Status != RequestStatusAccepted {
		return nil, ErrRequestNotAccepted
	}
	if err := details.Validate(); err != nil {
		return nil, err
	}

	now = now.UTC()
	return &LearningSession{
		ID:            uuid.New(),
		RequestID:     request.ID,
		ScheduledDate: details.ScheduledDate.UTC(),
		Duration:      details.Duration,
		Location:      details.Location,
		Status:        SessionStatusScheduled,
		Notes:         details.Notes,
		Participants: []SessionParticipant{
			{UserID: request.RequesterID, UpdatedAt: now},
			{UserID: request.RecipientID, UpdatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// EndsAt returns the scheduled end of the session.
func (s *LearningSession) EndsAt() time.Time {
	return s.ScheduledDate.Add(s.Duration)
}

// Participant returns the participant row for userID.
func (s *LearningSession) Participant(userID uuid.UUID) (*SessionParticipant, bool) {
	for i := range s.Participants {
		if s.Participants[i].UserID == userID {
			return &s.Participants[i], true
		}
	}
	return nil, false
}

// IsParticipant reports whether userID has a participant row.
func (s *LearningSession) IsParticipant(userID uuid.UUID) bool {
	_, ok := s.Participant(userID)
	return ok
}

// Cancel moves a scheduled session to cancelled. Any participant may cancel.
func (s *LearningSession) Cancel(actorID uuid.UUID, now time.Time) error {
	if s.Status != SessionStatusScheduled {
		return ErrInvalidTransition
	}
	if !s.IsParticipant(actorID) {
		return ErrForbidden
	}
	s.Status = SessionStatusCancelled
	s.UpdatedAt = now.UTC()
	return nil
}

// Complete moves a scheduled session to completed. When the transition is
// triggered is decided by the caller.
func (s *LearningSession) Complete(now time.Time) error {
	if s.Status != SessionStatusScheduled {
		return ErrInvalidTransition
	}
	s.Status = SessionStatusCompleted
	s.UpdatedAt = now.UTC()
	return nil
}

// CompleteBy completes the session on behalf of a participant. The state
// guard is checked before the actor guard.
func (s *LearningSession) CompleteBy(actorID uuid.UUID, now time.Time) error {
	if s.Status != SessionStatusScheduled {
		return ErrInvalidTransition
	}
	if !s.IsParticipant(actorID) {
		return ErrForbidden
	}
	return s.Complete(now)
}

// Attendance is one participant's attendance record submission.
type Attendance struct {
	UserID   uuid.UUID
	Attended bool
	Feedback *string
	Rating   *int
}

// RecordAttendance updates the participant row of a.UserID.
//
// Recording opens at the scheduled start of the session and stays open once
// it is completed; cancelled sessions reject it. The updated row is returned.
func (s *LearningSession) RecordAttendance(a Attendance, now time.Time) (*SessionParticipant, error) {
	if a.Rating != nil && (*a.Rating < MinRating || *a.Rating > MaxRating) {
		return nil, ErrInvalidRating
	}
	p, ok := s.Participant(a.UserID)
	if !ok {
		return nil, ErrForbidden
	}
	switch s.Status {
	case SessionStatusCancelled:
		return nil, ErrInvalidTransition
	case SessionStatusScheduled:
		if now.Before(s.ScheduledDate) {
			return nil, ErrAttendanceTooEarly
		}
	}

	if a.Feedback != nil && *a.Feedback == "" {
		a.Feedback = nil
	}
	p.Attended = a.Attended
	p.Feedback = a.Feedback
	p.Rating = a.Rating
	p.UpdatedAt = now.UTC()
	s.UpdatedAt = p.UpdatedAt
	return p, nil
}

// Clone returns a deep copy of the session.
func (s *LearningSession) Clone() *LearningSession {
	c := *s
	c.Participants = make([]SessionParticipant, len(s.Participants))
	copy(c.Participants, s.Participants)
	if s.Notes != nil {
		n := *s.Notes
		c.Notes = &n
	}
	return &c
}
