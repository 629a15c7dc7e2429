// Package memory implements the internal/store interfaces in process
// memory. It backs the memory database driver and the service and API
// tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/domain"
	"github.com/phrazzld/skillswap-api/internal/store"
)

// state is one consistent version of every table.
type state struct {
	users    map[uuid.UUID]*domain.User
	requests map[uuid.UUID]*domain.PairingRequest
	sessions map[uuid.UUID]*domain.LearningSession
}

func newState() *state {
	return &state{
		users:    make(map[uuid.UUID]*domain.User),
		requests: make(map[uuid.UUID]*domain.PairingRequest),
		sessions: make(map[uuid.UUID]*domain.LearningSession),
	}
}

func (s *state) clone() *state {
	c := &state{
		users:    make(map[uuid.UUID]*domain.User, len(s.users)),
		requests: make(map[uuid.UUID]*domain.PairingRequest, len(s.requests)),
		sessions: make(map[uuid.UUID]*domain.LearningSession, len(s.sessions)),
	}
	for id, u := range s.users {
		c.users[id] = u.Clone()
	}
	for id, r := range s.requests {
		c.requests[id] = r.Clone()
	}
	for id, sess := range s.sessions {
		c.sessions[id] = sess.Clone()
	}
	return c
}

// runner executes fn against a state with whatever locking the caller needs.
type runner func(fn func(st *state) error) error

// DB is an in-memory database. Transactions are serialized: WithinTx holds
// the database lock for the whole unit of work and mutates a private copy
// of the state that replaces the shared one only on success.
type DB struct {
	mu sync.Mutex
	st *state
}

// New creates an empty in-memory database.
func New() *DB {
	return &DB{st: newState()}
}

func (db *DB) direct(fn func(st *state) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn(db.st)
}

// Repositories returns stores that each run as their own transaction.
func (db *DB) Repositories() store.Repositories {
	return bind(db.direct)
}

var _ store.Transactor = (*DB)(nil)

// WithinTx implements store.Transactor.
func (db *DB) WithinTx(ctx context.Context, fn store.RepoFn) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	work := db.st.clone()
	tx := func(f func(st *state) error) error { return f(work) }

	// A panic unwinds past the commit below; the copy is dropped.
	if err := fn(ctx, bind(tx)); err != nil {
		return err
	}
	db.st = work
	return nil
}

func bind(run runner) store.Repositories {
	return store.Repositories{
		Users:    &userStore{run: run},
		Requests: &requestStore{run: run},
		Sessions: &sessionStore{run: run},
	}
}
