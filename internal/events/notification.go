package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// NotificationLogHandler logs who should be told about each event. Delivery
// belongs to an external notifier reading the same stream.
type NotificationLogHandler struct {
	logger *slog.Logger
}

// NewNotificationLogHandler creates a NotificationLogHandler.
func NewNotificationLogHandler(logger *slog.Logger) *NotificationLogHandler {
	return &NotificationLogHandler{logger: logger.With("component", "notification_log")}
}

// HandleEvent implements EventHandler.
func (h *NotificationLogHandler) HandleEvent(ctx context.Context, event *Event) error {
	recipients, err := Recipients(event)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(recipients))
	for _, id := range recipients {
		ids = append(ids, id.String())
	}
	h.logger.InfoContext(ctx, "notification pending",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
		slog.Any("recipients", ids))
	return nil
}

// Recipients returns the users to notify about event. The acting user of a
// request transition is not notified; session events reach every participant.
func Recipients(event *Event) ([]uuid.UUID, error) {
	switch event.Type {
	case TypeRequestCreated, TypeRequestAccepted, TypeRequestDeclined, TypeRequestCancelled:
		var p RequestPayload
		if err := event.UnmarshalPayload(&p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		if p.ActorID == p.RequesterID {
			return []uuid.UUID{p.RecipientID}, nil
		}
		return []uuid.UUID{p.RequesterID}, nil
	case TypeSessionScheduled, TypeSessionCancelled, TypeSessionCompleted:
		var p SessionPayload
		if err := event.UnmarshalPayload(&p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		return p.ParticipantIDs, nil
	case TypeAttendanceRecorded:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", event.Type)
	}
}
