// Package matching computes ranked skill-exchange candidates from an
// in-memory inverse index of the skills users offer and seek.
package matching

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/domain"
)

// ErrStaleSnapshot is returned by Index when the indexed snapshot of the
// user was updated after the one offered.
var ErrStaleSnapshot = errors.New("stale user snapshot")

// bucket is a set of user ids.
type bucket map[uuid.UUID]struct{}

// Index maintains skill -> users inverse indexes for both directions plus a
// snapshot of every indexed user. It is safe for concurrent use; an update
// to one user is applied atomically with respect to readers.
type Index struct {
	mu       sync.RWMutex
	teachers map[string]bucket
	seekers  map[string]bucket
	users    map[uuid.UUID]*domain.User
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		teachers: make(map[string]bucket),
		seekers:  make(map[string]bucket),
		users:    make(map[uuid.UUID]*domain.User),
	}
}

// Index inserts or replaces the entries of user. Re-indexing an unchanged
// user leaves the index as it was. A malformed skill fails with
// domain.ErrInvalidSkill and a snapshot older than the indexed one by
// UpdatedAt fails with ErrStaleSnapshot; either way the index is not
// modified.
func (ix *Index) Index(user *domain.User) error {
	teach, err := domain.NewSkillSet(user.TeachSkills...)
	if err != nil {
		return err
	}
	learn, err := domain.NewSkillSet(user.LearnSkills...)
	if err != nil {
		return err
	}

	snapshot := user.Clone()
	snapshot.TeachSkills = teach
	snapshot.LearnSkills = learn

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if prev, ok := ix.users[user.ID]; ok && user.UpdatedAt.Before(prev.UpdatedAt) {
		return ErrStaleSnapshot
	}
	ix.removeLocked(user.ID)
	for _, skill := range teach {
		add(ix.teachers, skill, user.ID)
	}
	for _, skill := range learn {
		add(ix.seekers, skill, user.ID)
	}
	ix.users[user.ID] = snapshot
	return nil
}

// Remove drops every membership of userID. Emptied buckets are pruned.
func (ix *Index) Remove(userID uuid.UUID) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(userID)
}

func (ix *Index) removeLocked(userID uuid.UUID) {
	prev, ok := ix.users[userID]
	if !ok {
		return
	}
	for _, skill := range prev.TeachSkills {
		drop(ix.teachers, skill, userID)
	}
	for _, skill := range prev.LearnSkills {
		drop(ix.seekers, skill, userID)
	}
	delete(ix.users, userID)
}

// TeachersOf returns the ids of users offering skill.
func (ix *Index) TeachersOf(skill string) []uuid.UUID {
	return ix.lookup(ix.teachers, skill)
}

// SeekersOf returns the ids of users seeking skill.
func (ix *Index) SeekersOf(skill string) []uuid.UUID {
	return ix.lookup(ix.seekers, skill)
}

func (ix *Index) lookup(m map[string]bucket, skill string) []uuid.UUID {
	normalized, err := domain.NormalizeSkill(skill)
	if err != nil {
		return nil
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	b := m[normalized]
	ids := make([]uuid.UUID, 0, len(b))
	for id := range b {
		ids = append(ids, id)
	}
	return ids
}

// User returns a copy of the indexed snapshot of id.
func (ix *Index) User(id uuid.UUID) (*domain.User, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	u, ok := ix.users[id]
	if !ok {
		return nil, false
	}
	return u.Clone(), true
}

// Len returns the number of indexed users.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.users)
}

// candidates collects, under one read lock, the snapshots of every user
// that teaches something requester seeks or seeks something requester
// teaches. The requester is excluded.
func (ix *Index) candidates(requesterID uuid.UUID) (*domain.User, []*domain.User, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	requester, ok := ix.users[requesterID]
	if !ok {
		return nil, nil, false
	}

	seen := make(map[uuid.UUID]struct{})
	var out []*domain.User
	collect := func(b bucket) {
		for id := range b {
			if id == requesterID {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, ix.users[id])
		}
	}
	for _, skill := range requester.LearnSkills {
		collect(ix.teachers[skill])
	}
	for _, skill := range requester.TeachSkills {
		collect(ix.seekers[skill])
	}
	return requester, out, true
}

func add(m map[string]bucket, skill string, id uuid.UUID) {
	b, ok := m[skill]
	if !ok {
		b = make(bucket)
		m[skill] = b
	}
	b[id] = struct{}{}
}

func drop(m map[string]bucket, skill string, id uuid.UUID) {
	b, ok := m[skill]
	if !ok {
		return
	}
	delete(b, id)
	if len(b) == 0 {
		delete(m, skill)
	}
}
