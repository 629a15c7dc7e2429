package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/domain"
)

// SessionCompleter is the part of the session service the sweep needs.
type SessionCompleter interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.LearningSession, error)
	Complete(ctx context.Context, sessionID uuid.UUID) (*domain.LearningSession, error)
}

// CompletionTask completes one session.
type CompletionTask struct {
	id        uuid.UUID
	sessionID uuid.UUID
	completer SessionCompleter
}

// NewCompletionTask creates a task completing sessionID.
func NewCompletionTask(sessionID uuid.UUID, completer SessionCompleter) *CompletionTask {
	return &CompletionTask{id: uuid.New(), sessionID: sessionID, completer: completer}
}

// ID implements Task.
func (t *CompletionTask) ID() uuid.UUID { return t.id }

// Type implements Task.
func (t *CompletionTask) Type() string { return TaskTypeSessionCompletion }

// Key implements Keyed, so a session is queued for completion at most once.
func (t *CompletionTask) Key() string { return TaskTypeSessionCompletion + ":" + t.sessionID.String() }

// SessionID is the session the task completes.
func (t *CompletionTask) SessionID() uuid.UUID { return t.sessionID }

// Execute completes the session. A session that left the scheduled state
// in the meantime was handled by someone else and is not an error.
func (t *CompletionTask) Execute(ctx context.Context) error {
	_, err := t.completer.Complete(ctx, t.sessionID)
	if errors.Is(err, domain.ErrInvalidTransition) {
		return nil
	}
	return err
}

// SweeperConfig configures a CompletionSweeper.
type SweeperConfig struct {
	// Interval between sweeps
	Interval time.Duration

	// BatchSize caps the sessions enqueued per sweep
	BatchSize int
}

// CompletionSweeper periodically finds scheduled sessions whose end has
// passed and enqueues a CompletionTask for each.
type CompletionSweeper struct {
	completer SessionCompleter
	queue     TaskQueueWriter
	config    SweeperConfig
	now       func() time.Time
	logger    *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewCompletionSweeper creates a sweeper feeding queue.
func NewCompletionSweeper(
	completer SessionCompleter,
	queue TaskQueueWriter,
	config SweeperConfig,
	logger *slog.Logger,
) *CompletionSweeper {
	if config.Interval <= 0 {
		config.Interval = time.Minute
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	return &CompletionSweeper{
		completer: completer,
		queue:     queue,
		config:    config,
		now:       time.Now,
		logger:    logger.With("component", "completion_sweeper"),
	}
}

// SweepOnce enqueues completion tasks for the sessions due at the current
// time and returns how many were enqueued. Sessions still queued from an
// earlier sweep are skipped. Enqueueing stops at the first full queue; the
// remaining sessions are picked up by the next sweep.
func (s *CompletionSweeper) SweepOnce(ctx context.Context) (int, error) {
	due, err := s.completer.ListDue(ctx, s.now(), s.config.BatchSize)
	if err != nil {
		s.logger.Error("failed to list due sessions", "error", err)
		return 0, err
	}

	enqueued := 0
	for _, session := range due {
		err := s.queue.Enqueue(NewCompletionTask(session.ID, s.completer))
		if errors.Is(err, ErrAlreadyQueued) {
			continue
		}
		if err != nil {
			s.logger.Warn("stopped enqueueing completions",
				"error", err,
				"enqueued", enqueued,
				"due", len(due))
			return enqueued, err
		}
		enqueued++
	}

	if enqueued > 0 {
		s.logger.Info("enqueued session completions", "count", enqueued)
	}
	return enqueued, nil
}

// Start runs a sweep immediately and then every Interval until Stop is
// called or ctx is done.
func (s *CompletionSweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.config.Interval)
		defer ticker.Stop()

		for {
			_, _ = s.SweepOnce(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop ends the sweep loop and waits for it to exit.
func (s *CompletionSweeper) Stop() {
	s.once.Do(func() {
		if s.cancel == nil {
			return
		}
		s.cancel()
		<-s.done
	})
}
