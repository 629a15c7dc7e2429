package matching

import (
	"fmt"
	"testing"

	"github.com/phrazzld/skillswap-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		a, b      [2][]string // teach, learn
		wantScore float64
		wantAB    domain.SkillSet
		wantBA    domain.SkillSet
	}{
		{
			name:      "balanced one for one",
			a:         [2][]string{{"French"}, {"Guitar"}},
			b:         [2][]string{{"Guitar"}, {"French"}},
			wantScore: 1,
			wantAB:    domain.SkillSet{"french"},
			wantBA:    domain.SkillSet{"guitar"},
		},
		{
			name:      "one directional",
			a:         [2][]string{{"French", "Go", "Rust"}, nil},
			b:         [2][]string{nil, {"french", "go"}},
			wantScore: 2,
			wantAB:    domain.SkillSet{"french", "go"},
			wantBA:    domain.SkillSet{},
		},
		{
			name:      "harmonic mean of unbalanced exchange",
			a:         [2][]string{{"a1", "a2", "a3"}, {"b1"}},
			b:         [2][]string{{"b1"}, {"a1", "a2", "a3"}},
			wantScore: 1.5,
			wantAB:    domain.SkillSet{"a1", "a2", "a3"},
			wantBA:    domain.SkillSet{"b1"},
		},
		{
			name:      "disjoint",
			a:         [2][]string{{"French"}, {"Guitar"}},
			b:         [2][]string{{"Piano"}, {"Chess"}},
			wantScore: 0,
			wantAB:    domain.SkillSet{},
			wantBA:    domain.SkillSet{},
		},
		{
			name:      "empty users",
			wantScore: 0,
			wantAB:    domain.SkillSet{},
			wantBA:    domain.SkillSet{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := user(t, tc.a[0], tc.a[1])
			b := user(t, tc.b[0], tc.b[1])

			got := Score(a, b)
			assert.InDelta(t, tc.wantScore, got.Score, 1e-9)
			assert.Equal(t, tc.wantAB, got.ATeachesB)
			assert.Equal(t, tc.wantBA, got.BTeachesA)
		})
	}
}

func TestScore_Symmetric(t *testing.T) {
	t.Parallel()
	pool := []string{"go", "rust", "french", "guitar", "chess", "piano"}
	// Every pair drawn from a deterministic family of skill subsets.
	var users []*domain.User
	for mask := 0; mask < 1<<len(pool); mask += 7 {
		var teach, learn []string
		for i, s := range pool {
			if mask&(1<<i) != 0 {
				teach = append(teach, s)
			} else if (mask>>1)&(1<<i) != 0 {
				learn = append(learn, s)
			}
		}
		users = append(users, user(t, teach, learn))
	}

	for i, a := range users {
		for j, b := range users {
			if i == j {
				continue
			}
			ab, ba := Score(a, b), Score(b, a)
			msg := fmt.Sprintf("pair %d,%d", i, j)
			assert.Equal(t, ab.Score, ba.Score, msg)
			assert.Equal(t, ab.ATeachesB, ba.BTeachesA, msg)
			assert.Equal(t, ab.BTeachesA, ba.ATeachesB, msg)
		}
	}
}
