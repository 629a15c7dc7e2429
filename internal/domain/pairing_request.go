package domain

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the lifecycle status of a PairingRequest.
type RequestStatus string

// Pairing request statuses. Every status except pending is terminal.
const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusAccepted  RequestStatus = "accepted"
	RequestStatusDeclined  RequestStatus = "declined"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// IsValid reports whether s is one of the defined statuses.
func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusAccepted, RequestStatusDeclined, RequestStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed from s.
func (s RequestStatus) IsTerminal() bool {
	return s != RequestStatusPending
}

// PairingRequest is a proposal from one user to another to exchange a
// specific set of skills.
//
// TeachSkills are the skills the requester offers the recipient;
// LearnSkills are the skills the requester wants from the recipient.
type PairingRequest struct {
	ID          uuid.UUID     `json:"id"`
	RequesterID uuid.UUID     `json:"requester_id"`
	RecipientID uuid.UUID     `json:"recipient_id"`
	TeachSkills SkillSet      `json:"teach_skills"`
	LearnSkills SkillSet      `json:"learn_skills"`
	Status      RequestStatus `json:"status"`
	Message     *string       `json:"message,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// NewPairingRequest creates a pending request after checking the creation
// guards against the live skill sets of both users.
//
// A teach skill is accepted when the requester offers it or the recipient
// seeks it; a learn skill is accepted when the recipient offers it or the
// requester seeks it.
func NewPairingRequest(
	requester, recipient *User,
	teach, learn []string,
	message *string,
	now time.Time,
) (*PairingRequest, error) {
	if requester.ID == recipient.ID {
		return nil, ErrSelfRequest
	}

	teachSet, err := NewSkillSet(teach...)
	if err != nil {
		return nil, err
	}
	learnSet, err := NewSkillSet(learn...)
	if err != nil {
		return nil, err
	}
	if len(teachSet) == 0 && len(learnSet) == 0 {
		return nil, ErrNoSkills
	}

	for _, skill := range teachSet {
		if !requester.TeachSkills.Contains(skill) && !recipient.LearnSkills.Contains(skill) {
			return nil, NewValidationError("teach_skills", "contains "+skill, ErrSkillNotOffered)
		}
	}
	for _, skill := range learnSet {
		if !recipient.TeachSkills.Contains(skill) && !requester.LearnSkills.Contains(skill) {
			return nil, NewValidationError("learn_skills", "contains "+skill, ErrSkillNotOffered)
		}
	}

	if message != nil && *message == "" {
		message = nil
	}

	return &PairingRequest{
		ID:          uuid.New(),
		RequesterID: requester.ID,
		RecipientID: recipient.ID,
		TeachSkills: teachSet,
		LearnSkills: learnSet,
		Status:      RequestStatusPending,
		Message:     message,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// Validate checks the structural invariants of a persisted request.
func (r *PairingRequest) Validate() error {
	if r.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrValidation)
	}
	if r.RequesterID == uuid.Nil || r.RecipientID == uuid.Nil {
		return NewValidationError("participants", "cannot be empty", ErrValidation)
	}
	if r.RequesterID == r.RecipientID {
		return ErrSelfRequest
	}
	if !r.Status.IsValid() {
		return NewValidationError("status", "is not a known request status", ErrValidation)
	}
	return nil
}

// IsParticipant reports whether userID is the requester or the recipient.
func (r *PairingRequest) IsParticipant(userID uuid.UUID) bool {
	return userID == r.RequesterID || userID == r.RecipientID
}

// Counterpart returns the other participant of the request.
func (r *PairingRequest) Counterpart(userID uuid.UUID) uuid.UUID {
	if userID == r.RequesterID {
		return r.RecipientID
	}
	return r.RequesterID
}

// Accept moves a pending request to accepted. Only the recipient may accept.
func (r *PairingRequest) Accept(actorID uuid.UUID, now time.Time) error {
	return r.transition(RequestStatusAccepted, actorID, r.RecipientID, now)
}

// Decline moves a pending request to declined. Only the recipient may decline.
func (r *PairingRequest) Decline(actorID uuid.UUID, now time.Time) error {
	return r.transition(RequestStatusDeclined, actorID, r.RecipientID, now)
}

// Cancel moves a pending request to cancelled. Only the requester may cancel.
func (r *PairingRequest) Cancel(actorID uuid.UUID, now time.Time) error {
	return r.transition(RequestStatusCancelled, actorID, r.RequesterID, now)
}

// transition checks the state guard before the actor guard, so a terminal
// request reports ErrInvalidTransition to every caller. A failed guard
// leaves the request untouched.
func (r *PairingRequest) transition(to RequestStatus, actorID, allowed uuid.UUID, now time.Time) error {
	if r.Status.IsTerminal() {
		return ErrInvalidTransition
	}
	if actorID != allowed {
		return ErrForbidden
	}
	r.Status = to
	r.UpdatedAt = now.UTC()
	return nil
}

// Clone returns a deep copy of the request.
func (r *PairingRequest) Clone() *PairingRequest {
	c := *r
	c.TeachSkills = r.TeachSkills.Clone()
	c.LearnSkills = r.LearnSkills.Clone()
	if r.Message != nil {
		m := *r.Message
		c.Message = &m
	}
	return &c
}
