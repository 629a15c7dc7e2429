package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/domain"
	"github.com/phrazzld/skillswap-api/internal/store"
)

type userStore struct{ run runner }

var _ store.UserStore = (*userStore)(nil)

func (s *userStore) Upsert(_ context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	return s.run(func(st *state) error {
		if prev, ok := st.users[user.ID]; ok {
			user.CreatedAt = prev.CreatedAt
		}
		st.users[user.ID] = user.Clone()
		return nil
	})
}

func (s *userStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	var out *domain.User
	err := s.run(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return store.ErrUserNotFound
		}
		out = u.Clone()
		return nil
	})
	return out, err
}

func (s *userStore) List(_ context.Context) ([]*domain.User, error) {
	var out []*domain.User
	err := s.run(func(st *state) error {
		for _, u := range st.users {
			out = append(out, u.Clone())
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *domain.User) int { return cmp.Compare(a.ID.String(), b.ID.String()) })
	return out, err
}

type requestStore struct{ run runner }

var _ store.PairingRequestStore = (*requestStore)(nil)

func (s *requestStore) Create(_ context.Context, req *domain.PairingRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return s.run(func(st *state) error {
		if _, ok := st.users[req.RequesterID]; !ok {
			return store.ErrInvalidEntity
		}
		if _, ok := st.users[req.RecipientID]; !ok {
			return store.ErrInvalidEntity
		}
		if _, ok := st.requests[req.ID]; ok {
			return store.ErrDuplicate
		}
		if req.Status == domain.RequestStatusPending {
			for _, other := range st.requests {
				if other.Status == domain.RequestStatusPending &&
					other.RequesterID == req.RequesterID && other.RecipientID == req.RecipientID {
					return store.ErrPendingRequestExists
				}
			}
		}
		st.requests[req.ID] = req.Clone()
		return nil
	})
}

func (s *requestStore) GetByID(_ context.Context, id uuid.UUID) (*domain.PairingRequest, error) {
	var out *domain.PairingRequest
	err := s.run(func(st *state) error {
		r, ok := st.requests[id]
		if !ok {
			return store.ErrRequestNotFound
		}
		out = r.Clone()
		return nil
	})
	return out, err
}

// GetByIDForUpdate needs no row lock: a transaction already holds the
// database lock.
func (s *requestStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.PairingRequest, error) {
	return s.GetByID(ctx, id)
}

func (s *requestStore) UpdateStatus(
	_ context.Context,
	id uuid.UUID,
	expected, next domain.RequestStatus,
	updatedAt time.Time,
) error {
	return s.run(func(st *state) error {
		r, ok := st.requests[id]
		if !ok || r.Status != expected {
			return store.ErrConflict
		}
		r.Status = next
		r.UpdatedAt = updatedAt
		return nil
	})
}

func (s *requestStore) ListForUser(
	_ context.Context,
	userID uuid.UUID,
	filter store.RequestFilter,
) ([]*domain.PairingRequest, error) {
	out := []*domain.PairingRequest{}
	err := s.run(func(st *state) error {
		for _, r := range st.requests {
			if !matchesRole(r, userID, filter.Role) {
				continue
			}
			if filter.Status != "" && r.Status != filter.Status {
				continue
			}
			out = append(out, r.Clone())
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *domain.PairingRequest) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return out, err
}

func matchesRole(r *domain.PairingRequest, userID uuid.UUID, role store.RequestRole) bool {
	switch role {
	case store.RoleRequester:
		return r.RequesterID == userID
	case store.RoleRecipient:
		return r.RecipientID == userID
	default:
		return r.IsParticipant(userID)
	}
}

type sessionStore struct{ run runner }

var _ store.SessionStore = (*sessionStore)(nil)

func (s *sessionStore) Create(_ context.Context, session *domain.LearningSession) error {
	return s.run(func(st *state) error {
		if _, ok := st.requests[session.RequestID]; !ok {
			return store.ErrInvalidEntity
		}
		if _, ok := st.sessions[session.ID]; ok {
			return store.ErrDuplicate
		}
		st.sessions[session.ID] = session.Clone()
		return nil
	})
}

func (s *sessionStore) GetByID(_ context.Context, id uuid.UUID) (*domain.LearningSession, error) {
	var out *domain.LearningSession
	err := s.run(func(st *state) error {
		sess, ok := st.sessions[id]
		if !ok {
			return store.ErrSessionNotFound
		}
		out = sess.Clone()
		return nil
	})
	return out, err
}

func (s *sessionStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.LearningSession, error) {
	return s.GetByID(ctx, id)
}

func (s *sessionStore) UpdateStatus(
	_ context.Context,
	id uuid.UUID,
	expected, next domain.SessionStatus,
	updatedAt time.Time,
) error {
	return s.run(func(st *state) error {
		sess, ok := st.sessions[id]
		if !ok || sess.Status != expected {
			return store.ErrConflict
		}
		sess.Status = next
		sess.UpdatedAt = updatedAt
		return nil
	})
}

func (s *sessionStore) UpdateParticipant(_ context.Context, sessionID uuid.UUID, p domain.SessionParticipant) error {
	return s.run(func(st *state) error {
		sess, ok := st.sessions[sessionID]
		if !ok {
			return store.ErrSessionNotFound
		}
		row, ok := sess.Participant(p.UserID)
		if !ok {
			return store.ErrSessionNotFound
		}
		*row = p
		sess.UpdatedAt = p.UpdatedAt
		return nil
	})
}

func (s *sessionStore) ListByRequest(_ context.Context, requestID uuid.UUID) ([]*domain.LearningSession, error) {
	return s.list(func(sess *domain.LearningSession) bool { return sess.RequestID == requestID }, 0)
}

func (s *sessionStore) ListDueForCompletion(_ context.Context, now time.Time, limit int) ([]*domain.LearningSession, error) {
	return s.list(func(sess *domain.LearningSession) bool {
		return sess.Status == domain.SessionStatusScheduled && !sess.EndsAt().After(now)
	}, limit)
}

func (s *sessionStore) list(keep func(*domain.LearningSession) bool, limit int) ([]*domain.LearningSession, error) {
	out := []*domain.LearningSession{}
	err := s.run(func(st *state) error {
		for _, sess := range st.sessions {
			if keep(sess) {
				out = append(out, sess.Clone())
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *domain.LearningSession) int {
		if c := a.ScheduledDate.Compare(b.ScheduledDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}
