package service

import (
	"context"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/domain"
	"github.com/phrazzld/skillswap-api/internal/domain/matching"
	"github.com/phrazzld/skillswap-api/internal/platform/metrics"
)

// MatchService answers match queries from the skill index.
type MatchService interface {
	// FindMatches returns the ranked suggestions for userID. A limit of zero
	// or less returns every candidate; larger limits are capped.
	FindMatches(ctx context.Context, userID uuid.UUID, limit int) ([]domain.SuggestedMatch, error)
}

type matchService struct {
	base
	finder   *matching.Finder
	maxLimit int
	metrics  metrics.Recorder
}

// NewMatchService creates a MatchService. A nil recorder disables metrics.
func NewMatchService(
	index *matching.Index,
	maxLimit int,
	recorder metrics.Recorder,
	logger *slog.Logger,
	opts ...Option,
) (MatchService, error) {
	if index == nil {
		return nil, domain.NewValidationError("index", "cannot be nil", domain.ErrValidation)
	}
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &matchService{
		base:     newBase(logger, "match_service", opts),
		finder:   matching.NewFinder(index),
		maxLimit: maxLimit,
		metrics:  recorder,
	}, nil
}

func (s *matchService) FindMatches(ctx context.Context, userID uuid.UUID, limit int) ([]domain.SuggestedMatch, error) {
	start := s.now()
	if s.maxLimit > 0 && limit > s.maxLimit {
		limit = s.maxLimit
	}

	seq, err := s.finder.FindMatches(userID, limit)
	if err != nil {
		return nil, err
	}
	matches := slices.Collect(seq)
	if matches == nil {
		matches = []domain.SuggestedMatch{}
	}

	elapsed := s.now().Sub(start)
	s.metrics.RecordMatchQuery(len(matches), elapsed)
	s.log(ctx).Debug("match query served",
		slog.String("user_id", userID.String()),
		slog.Int("limit", limit),
		slog.Int("matches", len(matches)),
		slog.Duration("elapsed", elapsed))
	return matches, nil
}
