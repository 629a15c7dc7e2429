package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/domain"
	"github.com/phrazzld/skillswap-api/internal/domain/matching"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_UpsertProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := uuid.New()

	u, err := h.users.UpsertProfile(ctx, id, ProfileInput{
		DisplayName: "Ana",
		Bio:         "Polyglot",
		TeachSkills: []string{"  French ", "french", "Spanish"},
		LearnSkills: []string{"Guitar"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SkillSet{"french", "spanish"}, u.TeachSkills)
	assert.ElementsMatch(t, []uuid.UUID{id}, h.index.TeachersOf("FRENCH"))

	stored, err := h.users.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, u.TeachSkills, stored.TeachSkills)
	created := stored.CreatedAt

	h.clock.Advance(1)
	u, err = h.users.UpsertProfile(ctx, id, ProfileInput{
		DisplayName: "Ana",
		TeachSkills: []string{"Italian"},
	})
	require.NoError(t, err)
	assert.Equal(t, created, u.CreatedAt, "created_at survives updates")
	assert.Empty(t, h.index.TeachersOf("french"))
	assert.Empty(t, h.index.SeekersOf("guitar"))
	assert.ElementsMatch(t, []uuid.UUID{id}, h.index.TeachersOf("italian"))
}

func TestUserService_UpsertProfile_Rejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := uuid.New()

	_, err := h.users.UpsertProfile(ctx, id, ProfileInput{DisplayName: "Ana", TeachSkills: []string{"  "}})
	assert.ErrorIs(t, err, domain.ErrInvalidSkill)

	_, err = h.users.UpsertProfile(ctx, id, ProfileInput{DisplayName: ""})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.users.GetProfile(ctx, id)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Equal(t, 0, h.index.Len())
}

func TestUserService_WarmIndex(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a, b := h.pair(t)

	fresh := matching.NewIndex()
	svc, err := NewUserService(h.db.Repositories(), h.db, fresh, nil)
	require.NoError(t, err)

	n, err := svc.WarmIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.ElementsMatch(t, []uuid.UUID{a.ID}, fresh.TeachersOf("french"))
	assert.ElementsMatch(t, []uuid.UUID{b.ID}, fresh.SeekersOf("french"))
}

func TestUserService_ConcurrentUpsertsKeepIndexInStep(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := uuid.New()

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.clock.Advance(time.Second)
			_, err := h.users.UpsertProfile(ctx, id, ProfileInput{
				DisplayName: "Ana",
				TeachSkills: []string{fmt.Sprintf("skill-%d", i)},
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := h.users.GetProfile(ctx, id)
	require.NoError(t, err)
	indexed, ok := h.index.User(id)
	require.True(t, ok)
	assert.Equal(t, stored.TeachSkills, indexed.TeachSkills)
	assert.True(t, stored.UpdatedAt.Equal(indexed.UpdatedAt))
	assert.ElementsMatch(t, []uuid.UUID{id}, h.index.TeachersOf(stored.TeachSkills[0]))
}

func TestUserService_WarmIndexKeepsNewerSnapshot(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a, _ := h.pair(t)

	fresh := matching.NewIndex()
	newer := a.Clone()
	newer.TeachSkills = domain.MustSkillSet("Italian")
	newer.UpdatedAt = a.UpdatedAt.Add(time.Minute)
	require.NoError(t, fresh.Index(newer))

	svc, err := NewUserService(h.db.Repositories(), h.db, fresh, nil)
	require.NoError(t, err)
	n, err := svc.WarmIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.ElementsMatch(t, []uuid.UUID{a.ID}, fresh.TeachersOf("italian"))
	assert.Empty(t, fresh.TeachersOf("french"))
}

func TestNewUserService_RequiresDependencies(t *testing.T) {
	h := newHarness(t)
	_, err := NewUserService(h.db.Repositories(), nil, h.index, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = NewUserService(h.db.Repositories(), h.db, nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
