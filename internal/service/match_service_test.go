package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRecorder struct{ mock.Mock }

func (m *mockRecorder) RecordMatchQuery(candidates int, latency time.Duration) {
	m.Called(candidates, latency)
}
func (m *mockRecorder) RecordEvent(eventType string) { m.Called(eventType) }
func (m *mockRecorder) RecordHTTPStatus(code int)   { m.Called(code) }

func TestMatchService_FrenchGuitarExchange(t *testing.T) {
	h := newHarness(t)
	a, b := h.pair(t)

	matches, err := h.matches.FindMatches(context.Background(), a.ID, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, b.ID, m.Candidate.ID)
	assert.Equal(t, domain.SkillSet{"french"}, m.MatchingTeachSkills)
	assert.Equal(t, domain.SkillSet{"guitar"}, m.MatchingLearnSkills)
	assert.Equal(t, 1.0, m.MatchScore)
}

func TestMatchService_LimitIsCapped(t *testing.T) {
	h := newHarness(t)
	seeker := h.user(t, "Seeker", nil, []string{"Chess"})
	for i := 0; i < 5; i++ {
		h.user(t, "Teacher", []string{"Chess"}, nil)
	}

	rec := &mockRecorder{}
	rec.On("RecordMatchQuery", 3, mock.AnythingOfType("time.Duration")).Once()
	rec.On("RecordMatchQuery", 5, mock.AnythingOfType("time.Duration")).Once()

	svc, err := NewMatchService(h.index, 3, rec, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	capped, err := svc.FindMatches(context.Background(), seeker.ID, 100)
	require.NoError(t, err)
	assert.Len(t, capped, 3)

	all, err := svc.FindMatches(context.Background(), seeker.ID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5, "an absent limit returns every candidate")

	rec.AssertExpectations(t)
}

func TestMatchService_Errors(t *testing.T) {
	h := newHarness(t)

	_, err := h.matches.FindMatches(context.Background(), uuid.New(), 0)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	loner := h.user(t, "Loner", []string{"Knitting"}, nil)
	matches, err := h.matches.FindMatches(context.Background(), loner.ID, 0)
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)

	_, err = NewMatchService(nil, 10, nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
