package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/domain"
	"github.com/phrazzld/skillswap-api/internal/domain/matching"
	"github.com/phrazzld/skillswap-api/internal/events"
	"github.com/phrazzld/skillswap-api/internal/platform/memory"
	"github.com/stretchr/testify/require"
)

var testDefaults = SessionDefaults{
	LeadTime: 72 * time.Hour,
	Duration: time.Hour,
	Location: "To be arranged",
}

// fakeClock is a settable clock shared by the services under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// eventLog records emitted event types.
type eventLog struct {
	mu    sync.Mutex
	types []string
}

func (l *eventLog) HandleEvent(_ context.Context, e *events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.types = append(l.types, e.Type)
	return nil
}

func (l *eventLog) Types() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.types...)
}

type harness struct {
	db       *memory.DB
	index    *matching.Index
	clock    *fakeClock
	events   *eventLog
	users    UserService
	matches  MatchService
	requests RequestService
	sessions SessionService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := &harness{
		db:     memory.New(),
		index:  matching.NewIndex(),
		clock:  &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
		events: &eventLog{},
	}
	emitter := events.NewInMemoryEventEmitter(log)
	emitter.RegisterHandler(h.events)
	opts := []Option{WithClock(h.clock.Now), WithEmitter(emitter)}

	var err error
	h.users, err = NewUserService(h.db.Repositories(), h.db, h.index, log, opts...)
	require.NoError(t, err)
	h.matches, err = NewMatchService(h.index, 50, nil, log, opts...)
	require.NoError(t, err)
	h.requests, err = NewRequestService(h.db.Repositories(), h.db, h.index, testDefaults, log, opts...)
	require.NoError(t, err)
	h.sessions, err = NewSessionService(h.db.Repositories(), h.db, log, opts...)
	require.NoError(t, err)
	return h
}

func (h *harness) user(t *testing.T, name string, teach, learn []string) *domain.User {
	t.Helper()
	u, err := h.users.UpsertProfile(context.Background(), uuid.New(), ProfileInput{
		DisplayName: name,
		TeachSkills: teach,
		LearnSkills: learn,
	})
	require.NoError(t, err)
	return u
}

// pair creates the French/Guitar exchange pair.
func (h *harness) pair(t *testing.T) (a, b *domain.User) {
	t.Helper()
	a = h.user(t, "Ana", []string{"French"}, []string{"Guitar"})
	b = h.user(t, "Ben", []string{"Guitar"}, []string{"French"})
	return a, b
}

func (h *harness) pendingRequest(t *testing.T, from, to *domain.User) *domain.PairingRequest {
	t.Helper()
	req, err := h.requests.Create(context.Background(), from.ID, CreateRequestInput{
		RecipientID: to.ID,
		TeachSkills: []string{"French"},
		LearnSkills: []string{"Guitar"},
	})
	require.NoError(t, err)
	return req
}

func (h *harness) accepted(t *testing.T) (*domain.PairingRequest, *domain.LearningSession) {
	t.Helper()
	a, b := h.pair(t)
	req := h.pendingRequest(t, a, b)
	res, err := h.requests.Accept(context.Background(), b.ID, req.ID, nil)
	require.NoError(t, err)
	return res.Request, res.Session
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
