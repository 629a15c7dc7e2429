package matching

import "github.com/phrazzld/skillswap-api/internal/domain"

// Result is the compatibility of an ordered pair of users.
type Result struct {
	Score float64
	// ATeachesB holds a.TeachSkills ∩ b.LearnSkills.
	ATeachesB domain.SkillSet
	// BTeachesA holds b.TeachSkills ∩ a.LearnSkills.
	BTeachesA domain.SkillSet
}

// Score computes the compatibility of a and b. Balanced two-way exchanges
// score by the harmonic mean of the overlap sizes; a one-way overlap scores
// its size; no overlap scores zero. Score(a, b) equals Score(b, a) with the
// overlap sets swapped.
func Score(a, b *domain.User) Result {
	aTeachesB := a.TeachSkills.Intersect(b.LearnSkills)
	bTeachesA := b.TeachSkills.Intersect(a.LearnSkills)
	x, y := float64(len(aTeachesB)), float64(len(bTeachesA))

	score := max(x, y)
	if x > 0 && y > 0 {
		score = 2 * x * y / (x + y)
	}

	return Result{Score: score, ATeachesB: aTeachesB, BTeachesA: bTeachesA}
}
