package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser(t *testing.T, name string, teach, learn []string) *User {
	t.Helper()
	u, err := NewUser(uuid.New(), name, "", teach, learn, time.Now())
	require.NoError(t, err)
	return u
}

func strPtr(s string) *string { return &s }

func TestNewPairingRequest(t *testing.T) {
	t.Parallel()
	a := newTestUser(t, "A", []string{"French"}, []string{"Guitar"})
	b := newTestUser(t, "B", []string{"Guitar"}, []string{"French"})

	req, err := NewPairingRequest(a, b, []string{"french"}, []string{"GUITAR"}, strPtr("hi"), time.Now())
	require.NoError(t, err)

	assert.Equal(t, RequestStatusPending, req.Status)
	assert.Equal(t, a.ID, req.RequesterID)
	assert.Equal(t, b.ID, req.RecipientID)
	assert.Equal(t, SkillSet{"french"}, req.TeachSkills)
	assert.Equal(t, SkillSet{"guitar"}, req.LearnSkills)
	require.NotNil(t, req.Message)
	assert.Equal(t, "hi", *req.Message)
	assert.NoError(t, req.Validate())
}

func TestNewPairingRequest_Guards(t *testing.T) {
	t.Parallel()
	a := newTestUser(t, "A", []string{"French"}, []string{"Guitar"})
	b := newTestUser(t, "B", []string{"Guitar"}, []string{"Piano"})

	tests := []struct {
		name      string
		requester *User
		recipient *User
		teach     []string
		learn     []string
		wantErr   error
	}{
		{name: "self request", requester: a, recipient: a, teach: []string{"french"}, wantErr: ErrSelfRequest},
		{name: "no skills", requester: a, recipient: b, wantErr: ErrNoSkills},
		{name: "blank skill", requester: a, recipient: b, teach: []string{" "}, wantErr: ErrInvalidSkill},
		{
			name:      "teach skill offered by nobody",
			requester: a,
			recipient: b,
			teach:     []string{"cooking"},
			wantErr:   ErrSkillNotOffered,
		},
		{
			name:      "learn skill offered by nobody",
			requester: a,
			recipient: b,
			learn:     []string{"french"},
			wantErr:   ErrSkillNotOffered,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPairingRequest(tc.requester, tc.recipient, tc.teach, tc.learn, nil, time.Now())
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestNewPairingRequest_GuardsAcceptEitherSide(t *testing.T) {
	t.Parallel()
	a := newTestUser(t, "A", nil, []string{"Guitar"})
	b := newTestUser(t, "B", nil, []string{"Piano"})

	// piano is sought by the recipient, guitar by the requester
	req, err := NewPairingRequest(a, b, []string{"piano"}, []string{"guitar"}, strPtr(""), time.Now())
	require.NoError(t, err)
	assert.Nil(t, req.Message, "empty message is dropped")

	_, err = NewPairingRequest(a, b, nil, []string{"piano"}, nil, time.Now())
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestPairingRequestTransitions(t *testing.T) {
	t.Parallel()
	a := newTestUser(t, "A", []string{"French"}, []string{"Guitar"})
	b := newTestUser(t, "B", []string{"Guitar"}, []string{"French"})
	stranger := uuid.New()

	tests := []struct {
		name       string
		apply      func(r *PairingRequest, now time.Time) error
		wantErr    error
		wantStatus RequestStatus
	}{
		{
			name:       "recipient accepts",
			apply:      func(r *PairingRequest, now time.Time) error { return r.Accept(b.ID, now) },
			wantStatus: RequestStatusAccepted,
		},
		{
			name:       "recipient declines",
			apply:      func(r *PairingRequest, now time.Time) error { return r.Decline(b.ID, now) },
			wantStatus: RequestStatusDeclined,
		},
		{
			name:       "requester cancels",
			apply:      func(r *PairingRequest, now time.Time) error { return r.Cancel(a.ID, now) },
			wantStatus: RequestStatusCancelled,
		},
		{
			name:       "requester cannot accept",
			apply:      func(r *PairingRequest, now time.Time) error { return r.Accept(a.ID, now) },
			wantErr:    ErrForbidden,
			wantStatus: RequestStatusPending,
		},
		{
			name:       "recipient cannot cancel",
			apply:      func(r *PairingRequest, now time.Time) error { return r.Cancel(b.ID, now) },
			wantErr:    ErrForbidden,
			wantStatus: RequestStatusPending,
		},
		{
			name:       "stranger cannot decline",
			apply:      func(r *PairingRequest, now time.Time) error { return r.Decline(stranger, now) },
			wantErr:    ErrForbidden,
			wantStatus: RequestStatusPending,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			created := time.Now().Add(-time.Hour)
			req, err := NewPairingRequest(a, b, []string{"french"}, nil, nil, created)
			require.NoError(t, err)

			err = tc.apply(req, time.Now())
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.True(t, req.UpdatedAt.Equal(created.UTC()), "rejected call must not touch the request")
			} else {
				assert.NoError(t, err)
				assert.True(t, req.UpdatedAt.After(created))
			}
			assert.Equal(t, tc.wantStatus, req.Status)
		})
	}
}

func TestPairingRequest_TerminalStatesRejectEverything(t *testing.T) {
	t.Parallel()
	a := newTestUser(t, "A", []string{"French"}, []string{"Guitar"})
	b := newTestUser(t, "B", []string{"Guitar"}, []string{"French"})

	for _, terminal := range []RequestStatus{RequestStatusAccepted, RequestStatusDeclined, RequestStatusCancelled} {
		t.Run(string(terminal), func(t *testing.T) {
			req, err := NewPairingRequest(a, b, []string{"french"}, nil, nil, time.Now())
			require.NoError(t, err)
			req.Status = terminal

			for _, actor := range []uuid.UUID{a.ID, b.ID, uuid.New()} {
				assert.ErrorIs(t, req.Accept(actor, time.Now()), ErrInvalidTransition)
				assert.ErrorIs(t, req.Decline(actor, time.Now()), ErrInvalidTransition)
				assert.ErrorIs(t, req.Cancel(actor, time.Now()), ErrInvalidTransition)
			}
			assert.Equal(t, terminal, req.Status)
		})
	}
}

func TestPairingRequest_CancelThenAccept(t *testing.T) {
	t.Parallel()
	a := newTestUser(t, "A", []string{"French"}, []string{"Guitar"})
	b := newTestUser(t, "B", []string{"Guitar"}, []string{"French"})

	req, err := NewPairingRequest(a, b, []string{"french"}, []string{"guitar"}, nil, time.Now())
	require.NoError(t, err)

	require.NoError(t, req.Cancel(a.ID, time.Now()))
	assert.Equal(t, RequestStatusCancelled, req.Status)
	assert.ErrorIs(t, req.Accept(b.ID, time.Now()), ErrInvalidTransition)
	assert.Equal(t, RequestStatusCancelled, req.Status)
}

func TestPairingRequestParticipants(t *testing.T) {
	t.Parallel()
	a := newTestUser(t, "A", []string{"French"}, nil)
	b := newTestUser(t, "B", nil, []string{"French"})
	req, err := NewPairingRequest(a, b, []string{"french"}, nil, nil, time.Now())
	require.NoError(t, err)

	assert.True(t, req.IsParticipant(a.ID))
	assert.True(t, req.IsParticipant(b.ID))
	assert.False(t, req.IsParticipant(uuid.New()))
	assert.Equal(t, b.ID, req.Counterpart(a.ID))
	assert.Equal(t, a.ID, req.Counterpart(b.ID))
}
