package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the services after a successful commit.
const (
	TypeRequestCreated     = "pairing_request.created"
	TypeRequestAccepted    = "pairing_request.accepted"
	TypeRequestDeclined    = "pairing_request.declined"
	TypeRequestCancelled   = "pairing_request.cancelled"
	TypeSessionScheduled   = "session.scheduled"
	TypeSessionCancelled   = "session.cancelled"
	TypeSessionCompleted   = "session.completed"
	TypeAttendanceRecorded = "session.attendance_recorded"
)

// Event is a domain event describing a committed state change.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	// Payload contains the type-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates a new Event with the specified type and payload.
func NewEvent(eventType string, payload any) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// RequestPayload accompanies the pairing_request.* events.
type RequestPayload struct {
	RequestID   uuid.UUID `json:"request_id"`
	RequesterID uuid.UUID `json:"requester_id"`
	RecipientID uuid.UUID `json:"recipient_id"`
	ActorID     uuid.UUID `json:"actor_id"`
	Status      string    `json:"status"`
}

// SessionPayload accompanies session.scheduled, session.cancelled and
// session.completed.
type SessionPayload struct {
	SessionID      uuid.UUID   `json:"session_id"`
	RequestID      uuid.UUID   `json:"request_id"`
	ParticipantIDs []uuid.UUID `json:"participant_ids"`
	ScheduledDate  time.Time   `json:"scheduled_date"`
	Status         string      `json:"status"`
}

// AttendancePayload accompanies session.attendance_recorded.
type AttendancePayload struct {
	SessionID uuid.UUID `json:"session_id"`
	UserID    uuid.UUID `json:"user_id"`
	Attended  bool      `json:"attended"`
	Rating    *int      `json:"rating,omitempty"`
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}
