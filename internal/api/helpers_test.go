package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/api/shared"
	"github.com/phrazzld/skillswap-api/internal/config"
	"github.com/phrazzld/skillswap-api/internal/domain/matching"
	"github.com/phrazzld/skillswap-api/internal/platform/memory"
	"github.com/phrazzld/skillswap-api/internal/service"
	"github.com/phrazzld/skillswap-api/internal/service/auth"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-at-least-32-characters"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testServer runs the full router over the in-memory store.
type testServer struct {
	t       *testing.T
	handler http.Handler
	clock   *testClock
	jwt     auth.JWTService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := memory.New()
	index := matching.NewIndex()
	clock := &testClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	opts := []service.Option{service.WithClock(clock.Now)}

	users, err := service.NewUserService(db.Repositories(), db, index, log, opts...)
	require.NoError(t, err)
	matches, err := service.NewMatchService(index, 50, nil, log, opts...)
	require.NoError(t, err)
	defaults := service.SessionDefaults{LeadTime: 72 * time.Hour, Duration: time.Hour, Location: "To be arranged"}
	requests, err := service.NewRequestService(db.Repositories(), db, index, defaults, log, opts...)
	require.NoError(t, err)
	sessions, err := service.NewSessionService(db.Repositories(), db, log, opts...)
	require.NoError(t, err)

	jwtService, err := auth.NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 60})
	require.NoError(t, err)

	return &testServer{
		t: t,
		handler: NewRouter(RouterConfig{
			Users:      users,
			Matches:    matches,
			Requests:   requests,
			Sessions:   sessions,
			JWTService: jwtService,
			Logger:     log,
		}),
		clock: clock,
		jwt:   jwtService,
	}
}

// do sends a request as userID; uuid.Nil sends it unauthenticated.
func (s *testServer) do(method, path string, userID uuid.UUID, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != uuid.Nil {
		token, err := s.jwt.GenerateToken(context.Background(), userID)
		require.NoError(s.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

// profile creates a profile for a fresh user and returns the user ID.
func (s *testServer) profile(name string, teach, learn []string) uuid.UUID {
	s.t.Helper()
	id := uuid.New()
	w := s.do(http.MethodPut, "/api/users/me", id, ProfileRequest{
		DisplayName: name,
		TeachSkills: teach,
		LearnSkills: learn,
	})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return id
}

// pair creates the French/Guitar exchange pair.
func (s *testServer) pair() (ana, ben uuid.UUID) {
	ana = s.profile("Ana", []string{"French"}, []string{"Guitar"})
	ben = s.profile("Ben", []string{"Guitar"}, []string{"French"})
	return ana, ben
}

func (s *testServer) createRequest(from, to uuid.UUID) PairingRequestResponse {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/requests", from, CreatePairingRequestRequest{
		RecipientID: to.String(),
		TeachSkills: []string{"French"},
		LearnSkills: []string{"Guitar"},
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[PairingRequestResponse](s.t, w)
}

func (s *testServer) acceptedSession() (ana, ben uuid.UUID, session SessionResponse) {
	s.t.Helper()
	ana, ben = s.pair()
	req := s.createRequest(ana, ben)
	w := s.do(http.MethodPost, "/api/requests/"+req.ID.String()+"/accept", ben, nil)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return ana, ben, decode[AcceptResponse](s.t, w).Session
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// requireError checks the status and code of an error response.
func requireError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	body := decode[shared.ErrorResponse](t, w)
	require.Equal(t, code, body.Code, body.Error)
	require.NotEmpty(t, body.Error)
}
