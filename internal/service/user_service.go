package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/domain"
	"github.com/phrazzld/skillswap-api/internal/domain/matching"
	"github.com/phrazzld/skillswap-api/internal/store"
)

// ProfileInput is the editable part of a user profile.
type ProfileInput struct {
	DisplayName string
	Bio         string
	TeachSkills []string
	LearnSkills []string
}

// UserService maintains profiles and keeps the skill index in step with them.
type UserService interface {
	// UpsertProfile creates or replaces the profile of userID and re-indexes it.
	UpsertProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*domain.User, error)

	// GetProfile returns the stored profile of userID.
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// WarmIndex loads every stored user into the index and returns the count.
	WarmIndex(ctx context.Context) (int, error)
}

// profileLockStripes is the number of mutexes profile writes are spread over.
const profileLockStripes = 64

type userService struct {
	base
	repos store.Repositories
	tx    store.Transactor
	index *matching.Index

	// profileLocks order the commit and the re-index of writes to one user.
	profileLocks [profileLockStripes]sync.Mutex
}

// NewUserService creates a UserService.
func NewUserService(
	repos store.Repositories,
	tx store.Transactor,
	index *matching.Index,
	logger *slog.Logger,
	opts ...Option,
) (UserService, error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if index == nil {
		return nil, domain.NewValidationError("index", "cannot be nil", domain.ErrValidation)
	}
	return &userService{
		base:  newBase(logger, "user_service", opts),
		repos: repos,
		tx:    tx,
		index: index,
	}, nil
}

func (s *userService) profileLock(userID uuid.UUID) *sync.Mutex {
	return &s.profileLocks[int(userID[15])%profileLockStripes]
}

func (s *userService) UpsertProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*domain.User, error) {
	log := s.log(ctx)

	mu := s.profileLock(userID)
	mu.Lock()
	defer mu.Unlock()

	user, err := domain.NewUser(userID, in.DisplayName, in.Bio, in.TeachSkills, in.LearnSkills, s.now())
	if err != nil {
		log.Debug("profile rejected", slog.String("error", err.Error()))
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos store.Repositories) error {
		existing, err := repos.Users.GetByID(ctx, userID)
		switch {
		case err == nil:
			user.CreatedAt = existing.CreatedAt
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
		return repos.Users.Upsert(ctx, user)
	})
	if err != nil {
		log.Error("failed to save profile",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, wrap("user", "upsert_profile", err)
	}

	// The skill sets are already normalized by NewUser. A stale snapshot
	// means another process indexed a later write; this one is superseded.
	if err := s.index.Index(user); err != nil && !errors.Is(err, matching.ErrStaleSnapshot) {
		return nil, wrap("user", "upsert_profile", err)
	}

	log.Info("profile saved",
		slog.String("user_id", userID.String()),
		slog.Int("teach_skills", len(user.TeachSkills)),
		slog.Int("learn_skills", len(user.LearnSkills)))
	return user, nil
}

func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, wrap("user", "get_profile", err)
	}
	return user, nil
}

func (s *userService) WarmIndex(ctx context.Context) (int, error) {
	users, err := s.repos.Users.List(ctx)
	if err != nil {
		return 0, wrap("user", "warm_index", err)
	}

	indexed := 0
	for _, user := range users {
		err := s.index.Index(user)
		if errors.Is(err, matching.ErrStaleSnapshot) {
			// A profile write landed while warming; it is already indexed.
			s.log(ctx).Debug("skipped stale user snapshot", slog.String("user_id", user.ID.String()))
			indexed++
			continue
		}
		if err != nil {
			// A stored user always has valid skills.
			return indexed, NewServiceError("user", "warm_index",
				fmt.Errorf("index user %s: %w", user.ID, err))
		}
		indexed++
	}

	s.log(ctx).Info("skill index warmed", slog.Int("users", indexed))
	return indexed, nil
}
