package matching

import (
	"cmp"
	"iter"
	"slices"

	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/domain"
)

// Finder ranks match candidates for a user from an Index.
type Finder struct {
	index *Index
}

// NewFinder creates a Finder reading from index.
func NewFinder(index *Index) *Finder {
	return &Finder{index: index}
}

// FindMatches returns the candidates of userID ordered by descending score,
// ties broken by ascending candidate id. A limit of zero or less returns
// every candidate. The sequence reads a snapshot taken when FindMatches is
// called; later index updates require a new call.
//
// It fails with domain.ErrUserNotFound if userID is not indexed.
func (f *Finder) FindMatches(userID uuid.UUID, limit int) (iter.Seq[domain.SuggestedMatch], error) {
	requester, candidates, ok := f.index.candidates(userID)
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	type scored struct {
		user   *domain.User
		result Result
		key    string
	}
	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, scored{user: c, result: Score(requester, c), key: c.ID.String()})
	}
	slices.SortFunc(ranked, func(a, b scored) int {
		if c := cmp.Compare(b.result.Score, a.result.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.key, b.key)
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return func(yield func(domain.SuggestedMatch) bool) {
		for _, r := range ranked {
			m := domain.SuggestedMatch{
				Candidate:           r.user.Public(),
				MatchingTeachSkills: r.result.ATeachesB,
				MatchingLearnSkills: r.result.BTeachesA,
				MatchScore:          r.result.Score,
			}
			if !yield(m) {
				return
			}
		}
	}, nil
}
