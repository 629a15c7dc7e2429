package matching

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func user(t *testing.T, teach, learn []string) *domain.User {
	t.Helper()
	u, err := domain.NewUser(uuid.New(), "user", "", teach, learn, time.Now())
	require.NoError(t, err)
	return u
}

func TestIndex_Lookups(t *testing.T) {
	t.Parallel()
	ix := NewIndex()
	a := user(t, []string{"French", "Go"}, []string{"Guitar"})
	b := user(t, []string{"Guitar"}, []string{"French"})
	require.NoError(t, ix.Index(a))
	require.NoError(t, ix.Index(b))

	assert.ElementsMatch(t, []uuid.UUID{a.ID}, ix.TeachersOf("french"))
	assert.ElementsMatch(t, []uuid.UUID{a.ID}, ix.TeachersOf("  FRENCH "), "lookups normalize input")
	assert.ElementsMatch(t, []uuid.UUID{b.ID}, ix.SeekersOf("French"))
	assert.ElementsMatch(t, []uuid.UUID{b.ID}, ix.TeachersOf("guitar"))
	assert.Empty(t, ix.TeachersOf("piano"))
	assert.Empty(t, ix.TeachersOf(" "))
	assert.Equal(t, 2, ix.Len())
}

func TestIndex_ReindexReplacesMemberships(t *testing.T) {
	t.Parallel()
	ix := NewIndex()
	a := user(t, []string{"French"}, []string{"Guitar"})
	require.NoError(t, ix.Index(a))

	a.TeachSkills = domain.MustSkillSet("Spanish")
	require.NoError(t, ix.Index(a))
	require.NoError(t, ix.Index(a))

	assert.Empty(t, ix.TeachersOf("french"))
	assert.NotContains(t, ix.teachers, "french", "emptied buckets are pruned")
	assert.ElementsMatch(t, []uuid.UUID{a.ID}, ix.TeachersOf("spanish"))
	assert.ElementsMatch(t, []uuid.UUID{a.ID}, ix.SeekersOf("guitar"))
	assert.Equal(t, 1, ix.Len())
}

func TestIndex_RejectsMalformedSkill(t *testing.T) {
	t.Parallel()
	ix := NewIndex()
	a := user(t, []string{"French"}, nil)
	require.NoError(t, ix.Index(a))

	bad := a.Clone()
	bad.TeachSkills = domain.SkillSet{"go", "   "}
	assert.ErrorIs(t, ix.Index(bad), domain.ErrInvalidSkill)

	assert.ElementsMatch(t, []uuid.UUID{a.ID}, ix.TeachersOf("french"), "failed index leaves state unchanged")
	assert.Empty(t, ix.TeachersOf("go"))
}

func TestIndex_RejectsOlderSnapshot(t *testing.T) {
	t.Parallel()
	ix := NewIndex()
	older := user(t, []string{"French"}, nil)
	newer := older.Clone()
	newer.TeachSkills = domain.MustSkillSet("Spanish")
	newer.UpdatedAt = older.UpdatedAt.Add(time.Second)

	require.NoError(t, ix.Index(newer))
	assert.ErrorIs(t, ix.Index(older), ErrStaleSnapshot)

	assert.Empty(t, ix.TeachersOf("french"))
	assert.ElementsMatch(t, []uuid.UUID{older.ID}, ix.TeachersOf("spanish"))
	got, ok := ix.User(older.ID)
	require.True(t, ok)
	assert.Equal(t, newer.UpdatedAt, got.UpdatedAt)

	same := newer.Clone()
	same.TeachSkills = domain.MustSkillSet("Italian")
	require.NoError(t, ix.Index(same), "an equal timestamp replaces the snapshot")
	assert.ElementsMatch(t, []uuid.UUID{older.ID}, ix.TeachersOf("italian"))
}

func TestIndex_Remove(t *testing.T) {
	t.Parallel()
	ix := NewIndex()
	a := user(t, []string{"French"}, []string{"Guitar"})
	require.NoError(t, ix.Index(a))

	ix.Remove(a.ID)
	ix.Remove(uuid.New())

	_, ok := ix.User(a.ID)
	assert.False(t, ok)
	assert.Empty(t, ix.teachers)
	assert.Empty(t, ix.seekers)
}

func TestIndex_UserReturnsCopy(t *testing.T) {
	t.Parallel()
	ix := NewIndex()
	a := user(t, []string{"French"}, nil)
	require.NoError(t, ix.Index(a))

	got, ok := ix.User(a.ID)
	require.True(t, ok)
	got.TeachSkills[0] = "mutated"

	again, _ := ix.User(a.ID)
	assert.Equal(t, domain.SkillSet{"french"}, again.TeachSkills)
}

func TestIndex_ConcurrentUpdatesAreAtomic(t *testing.T) {
	t.Parallel()
	ix := NewIndex()
	a := user(t, []string{"x1", "x2"}, nil)
	require.NoError(t, ix.Index(a))

	setA := domain.MustSkillSet("x1", "x2")
	setB := domain.MustSkillSet("y1", "y2")

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			u := a.Clone()
			if i%2 == 0 {
				u.TeachSkills = setB
			} else {
				u.TeachSkills = setA
			}
			assert.NoError(t, ix.Index(u))
		}
		close(stop)
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				u, ok := ix.User(a.ID)
				if !assert.True(t, ok) {
					return
				}
				if !assert.True(t, u.TeachSkills.Equal(setA) || u.TeachSkills.Equal(setB)) {
					return
				}
			}
		}()
	}
	wg.Wait()
}
