package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/domain"
	"github.com/phrazzld/skillswap-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPair(t *testing.T, db *DB) (*domain.User, *domain.User) {
	t.Helper()
	ctx := context.Background()
	a, err := domain.NewUser(uuid.New(), "A", "", []string{"French"}, []string{"Guitar"}, time.Now())
	require.NoError(t, err)
	b, err := domain.NewUser(uuid.New(), "B", "", []string{"Guitar"}, []string{"French"}, time.Now())
	require.NoError(t, err)
	repos := db.Repositories()
	require.NoError(t, repos.Users.Upsert(ctx, a))
	require.NoError(t, repos.Users.Upsert(ctx, b))
	return a, b
}

func TestWithinTx_CommitAndRollback(t *testing.T) {
	db := New()
	ctx := context.Background()
	a, b := seedPair(t, db)
	req, err := domain.NewPairingRequest(a, b, []string{"french"}, nil, nil, time.Now())
	require.NoError(t, err)

	boom := errors.New("boom")
	err = db.WithinTx(ctx, func(ctx context.Context, repos store.Repositories) error {
		require.NoError(t, repos.Requests.Create(ctx, req))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	_, err = db.Repositories().Requests.GetByID(ctx, req.ID)
	assert.ErrorIs(t, err, store.ErrRequestNotFound, "rolled back write is invisible")

	require.NoError(t, db.WithinTx(ctx, func(ctx context.Context, repos store.Repositories) error {
		return repos.Requests.Create(ctx, req)
	}))
	got, err := db.Repositories().Requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusPending, got.Status)
}

func TestWithinTx_PanicRollsBack(t *testing.T) {
	db := New()
	ctx := context.Background()
	a, _ := seedPair(t, db)

	assert.Panics(t, func() {
		_ = db.WithinTx(ctx, func(ctx context.Context, repos store.Repositories) error {
			u, _ := repos.Users.GetByID(ctx, a.ID)
			u.DisplayName = "changed"
			_ = repos.Users.Upsert(ctx, u)
			panic("boom")
		})
	})

	got, err := db.Repositories().Users.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.DisplayName)

	// The lock was released.
	require.NoError(t, db.WithinTx(ctx, func(context.Context, store.Repositories) error { return nil }))
}

func TestReadsReturnCopies(t *testing.T) {
	db := New()
	ctx := context.Background()
	a, _ := seedPair(t, db)

	u, err := db.Repositories().Users.GetByID(ctx, a.ID)
	require.NoError(t, err)
	u.TeachSkills[0] = "mutated"

	again, err := db.Repositories().Users.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SkillSet{"french"}, again.TeachSkills)
}

func TestRequestStore_Rules(t *testing.T) {
	db := New()
	ctx := context.Background()
	repos := db.Repositories()
	a, b := seedPair(t, db)

	first, err := domain.NewPairingRequest(a, b, []string{"french"}, nil, nil, time.Now())
	require.NoError(t, err)
	require.NoError(t, repos.Requests.Create(ctx, first))

	dup, err := domain.NewPairingRequest(a, b, []string{"french"}, nil, nil, time.Now())
	require.NoError(t, err)
	assert.ErrorIs(t, repos.Requests.Create(ctx, dup), store.ErrPendingRequestExists)

	stranger, err := domain.NewUser(uuid.New(), "C", "", nil, []string{"French"}, time.Now())
	require.NoError(t, err)
	orphan, err := domain.NewPairingRequest(a, stranger, []string{"french"}, nil, nil, time.Now())
	require.NoError(t, err)
	assert.ErrorIs(t, repos.Requests.Create(ctx, orphan), store.ErrInvalidEntity)

	require.NoError(t, repos.Requests.UpdateStatus(ctx, first.ID,
		domain.RequestStatusPending, domain.RequestStatusDeclined, time.Now()))
	assert.ErrorIs(t, repos.Requests.UpdateStatus(ctx, first.ID,
		domain.RequestStatusPending, domain.RequestStatusAccepted, time.Now()), store.ErrConflict)
	require.NoError(t, repos.Requests.Create(ctx, dup), "declined request frees the pair")

	sent, err := repos.Requests.ListForUser(ctx, a.ID, store.RequestFilter{Role: store.RoleRequester})
	require.NoError(t, err)
	assert.Len(t, sent, 2)
	received, err := repos.Requests.ListForUser(ctx, a.ID, store.RequestFilter{Role: store.RoleRecipient})
	require.NoError(t, err)
	assert.Empty(t, received)
	pending, err := repos.Requests.ListForUser(ctx, b.ID, store.RequestFilter{Status: domain.RequestStatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, dup.ID, pending[0].ID)
}

func TestSessionStore_DueForCompletion(t *testing.T) {
	db := New()
	ctx := context.Background()
	repos := db.Repositories()
	a, b := seedPair(t, db)
	req, err := domain.NewPairingRequest(a, b, []string{"french"}, nil, nil, time.Now())
	require.NoError(t, err)
	require.NoError(t, req.Accept(b.ID, time.Now()))
	require.NoError(t, repos.Requests.Create(ctx, req))

	now := time.Now()
	mk := func(start time.Time) *domain.LearningSession {
		s, err := domain.NewLearningSession(req, domain.SessionDetails{
			ScheduledDate: start, Duration: time.Hour, Location: "Cafe",
		}, now)
		require.NoError(t, err)
		require.NoError(t, repos.Sessions.Create(ctx, s))
		return s
	}
	old := mk(now.Add(-5 * time.Hour))
	ended := mk(now.Add(-2 * time.Hour))
	mk(now.Add(-30 * time.Minute)) // still running
	mk(now.Add(time.Hour))         // future
	cancelled := mk(now.Add(-4 * time.Hour))
	require.NoError(t, repos.Sessions.UpdateStatus(ctx, cancelled.ID,
		domain.SessionStatusScheduled, domain.SessionStatusCancelled, now))

	due, err := repos.Sessions.ListDueForCompletion(ctx, now, 0)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, old.ID, due[0].ID)
	assert.Equal(t, ended.ID, due[1].ID)

	limited, err := repos.Sessions.ListDueForCompletion(ctx, now, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	all, err := repos.Sessions.ListByRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	err = repos.Sessions.UpdateParticipant(ctx, old.ID, domain.SessionParticipant{UserID: uuid.New()})
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestWithinTx_ConcurrentTransitionsSerialize(t *testing.T) {
	db := New()
	ctx := context.Background()
	a, b := seedPair(t, db)
	req, err := domain.NewPairingRequest(a, b, []string{"french"}, nil, nil, time.Now())
	require.NoError(t, err)
	require.NoError(t, db.Repositories().Requests.Create(ctx, req))

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = db.WithinTx(ctx, func(ctx context.Context, repos store.Repositories) error {
				r, err := repos.Requests.GetByIDForUpdate(ctx, req.ID)
				if err != nil {
					return err
				}
				if i%2 == 0 {
					err = r.Cancel(a.ID, time.Now())
				} else {
					err = r.Accept(b.ID, time.Now())
				}
				if err != nil {
					return err
				}
				return repos.Requests.UpdateStatus(ctx, r.ID, domain.RequestStatusPending, r.Status, r.UpdatedAt)
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	}
	assert.Equal(t, 1, wins)
}
