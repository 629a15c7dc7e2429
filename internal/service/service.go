package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/config"
	"github.com/phrazzld/skillswap-api/internal/domain"
	"github.com/phrazzld/skillswap-api/internal/events"
	"github.com/phrazzld/skillswap-api/internal/platform/logger"
)

// Option customizes a service.
type Option func(*base)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// WithEmitter publishes domain events to emitter after each commit.
func WithEmitter(emitter events.EventEmitter) Option {
	return func(b *base) { b.emitter = emitter }
}

// base holds what every service shares.
type base struct {
	now     func() time.Time
	emitter events.EventEmitter
	logger  *slog.Logger
}

func newBase(log *slog.Logger, component string, opts []Option) base {
	if log == nil {
		log = slog.Default()
	}
	b := base{now: time.Now, logger: log.With(slog.String("component", component))}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *base) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, b.logger)
}

// emit publishes an event. The state change is already committed, so a
// failure is logged and not returned.
func (b *base) emit(ctx context.Context, eventType string, payload any) {
	if b.emitter == nil {
		return
	}
	event, err := events.NewEvent(eventType, payload)
	if err == nil {
		err = b.emitter.EmitEvent(ctx, event)
	}
	if err != nil {
		b.log(ctx).Error("failed to emit event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
	}
}

// SessionDefaults fill in the first session created when a request is
// accepted without a proposal.
type SessionDefaults struct {
	LeadTime time.Duration
	Duration time.Duration
	Location string
}

// SessionDefaultsFromConfig converts the sessions configuration.
func SessionDefaultsFromConfig(cfg config.SessionsConfig) SessionDefaults {
	return SessionDefaults{
		LeadTime: time.Duration(cfg.DefaultLeadTimeHours) * time.Hour,
		Duration: time.Duration(cfg.DefaultDurationMinutes) * time.Minute,
		Location: cfg.DefaultLocation,
	}
}

// details returns the proposal derived from the defaults at now.
func (d SessionDefaults) details(now time.Time) domain.SessionDetails {
	return domain.SessionDetails{
		ScheduledDate: now.Add(d.LeadTime).UTC().Truncate(time.Minute),
		Duration:      d.Duration,
		Location:      d.Location,
	}
}

func requestPayload(r *domain.PairingRequest, actorID uuid.UUID) events.RequestPayload {
	return events.RequestPayload{
		RequestID:   r.ID,
		RequesterID: r.RequesterID,
		RecipientID: r.RecipientID,
		ActorID:     actorID,
		Status:      string(r.Status),
	}
}

func sessionPayload(s *domain.LearningSession) events.SessionPayload {
	p := events.SessionPayload{
		SessionID:     s.ID,
		RequestID:     s.RequestID,
		ScheduledDate: s.ScheduledDate,
		Status:        string(s.Status),
	}
	for _, participant := range s.Participants {
		p.ParticipantIDs = append(p.ParticipantIDs, participant.UserID)
	}
	return p
}
