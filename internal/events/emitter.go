package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/skillswap-api/internal/platform/logger"
)

// namedHandler pairs a handler with the name it is logged under.
type namedHandler struct {
	name    string
	handler EventHandler
}

// InMemoryEventEmitter dispatches events synchronously to handlers
// registered in process, in registration order.
type InMemoryEventEmitter struct {
	mu       sync.RWMutex
	handlers []namedHandler
	logger   *slog.Logger
}

var _ EventEmitter = (*InMemoryEventEmitter)(nil)

// NewInMemoryEventEmitter creates an emitter with no handlers.
func NewInMemoryEventEmitter(log *slog.Logger) *InMemoryEventEmitter {
	if log == nil {
		log = slog.Default()
	}
	return &InMemoryEventEmitter{
		logger: log.With(slog.String("component", "event_emitter")),
	}
}

// RegisterHandler subscribes handler to every event type.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, namedHandler{name: fmt.Sprintf("%T", handler), handler: handler})
	e.logger.Debug("event handler registered",
		slog.String("handler", fmt.Sprintf("%T", handler)),
		slog.Int("handler_count", len(e.handlers)))
}

// EmitEvent delivers event to every handler. A failing handler does not stop
// delivery to the rest; the failures are joined, each prefixed with the
// handler's type.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *Event) error {
	e.mu.RLock()
	handlers := make([]namedHandler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	log := logger.FromContextOrDefault(ctx, e.logger).With(
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type))

	if len(handlers) == 0 {
		log.Warn("no handlers registered for event")
		return nil
	}

	var errs []error
	for _, h := range handlers {
		if err := h.handler.HandleEvent(ctx, event); err != nil {
			log.Error("event handler failed",
				slog.String("handler", h.name),
				slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
		}
	}
	log.Debug("event delivered", slog.Int("handlers", len(handlers)), slog.Int("failed", len(errs)))
	return errors.Join(errs...)
}
