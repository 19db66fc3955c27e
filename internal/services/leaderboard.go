package services

import (
	"context"
	"fmt"

	"github.com/sbms/facilities-server/internal/models"
	"github.com/sbms/facilities-server/internal/storage"
	"go.uber.org/zap"
)

const (
	DefaultLeaderboardSize = 10
	MaxLeaderboardSize     = 100
)

// LeaderboardService ranks students by points
type LeaderboardService struct {
	users  storage.UserStore
	cache  StandingsCache
	logger *zap.SugaredLogger
}

// NewLeaderboardService creates a leaderboard service. cache may be nil.
func NewLeaderboardService(users storage.UserStore, cache StandingsCache, logger *zap.SugaredLogger) *LeaderboardService {
	return &LeaderboardService{users: users, cache: cache, logger: logger}
}

// NormalizeLimit applies the default and the upper bound to a requested size.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLeaderboardSize
	case limit > MaxLeaderboardSize:
		return MaxLeaderboardSize
	}
	return limit
}

// TopStudents returns up to limit students, points descending then
// username ascending. Cache errors fall through to the store.
func (s *LeaderboardService) TopStudents(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	limit = NormalizeLimit(limit)

	if s.cache != nil {
		entries, ok, err := s.cache.Get(ctx, limit)
		if err != nil {
			s.logger.Warnw("Leaderboard cache read failed", "error", err)
		} else if ok {
			return entries, nil
		}
	}

	entries, err := s.users.TopStudents(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("rank students: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, limit, entries); err != nil {
			s.logger.Warnw("Leaderboard cache write failed", "error", err)
		}
	}
	return entries, nil
}
