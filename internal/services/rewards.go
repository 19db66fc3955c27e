package services

import (
	"context"
	"fmt"

	"github.com/sbms/facilities-server/internal/apperr"
	"github.com/sbms/facilities-server/internal/metrics"
	"github.com/sbms/facilities-server/internal/models"
	"github.com/sbms/facilities-server/internal/storage"
	"go.uber.org/zap"
)

// Point values credited by the workflow.
const (
	SubmissionPoints = 1
	ResolutionPoints = 3
)

// Award reasons, used as metric labels and in logs.
const (
	ReasonSubmission = "submission"
	ReasonResolution = "resolution"
)

// StandingsCache holds computed leaderboard rankings keyed by limit.
type StandingsCache interface {
	Get(ctx context.Context, limit int) ([]models.LeaderboardEntry, bool, error)
	Set(ctx context.Context, limit int, entries []models.LeaderboardEntry) error
	Invalidate(ctx context.Context) error
}

// RewardsLedger credits points to users. Awards run against whatever store
// they are given, so a caller inside a transaction passes its tx.
type RewardsLedger struct {
	cache  StandingsCache
	logger *zap.SugaredLogger
}

// NewRewardsLedger creates a ledger. cache may be nil.
func NewRewardsLedger(cache StandingsCache, logger *zap.SugaredLogger) *RewardsLedger {
	return &RewardsLedger{cache: cache, logger: logger}
}

// Award adds amount points to userID.
func (l *RewardsLedger) Award(ctx context.Context, users storage.UserStore, userID int64, amount int, reason string) error {
	if amount <= 0 {
		return invalidField("amount", fmt.Sprintf("must be positive, got %d", amount))
	}
	if err := users.AddPoints(ctx, userID, amount); err != nil {
		metrics.AwardFailures.WithLabelValues(reason).Inc()
		return fmt.Errorf("award %d points to user %d: %w", amount, userID, err)
	}

	metrics.PointsAwarded.WithLabelValues(reason).Add(float64(amount))
	l.logger.Infow("Points awarded",
		"user_id", userID,
		"amount", amount,
		"reason", reason,
	)
	return nil
}

// Settle drops cached standings once awarded points are committed.
func (l *RewardsLedger) Settle(ctx context.Context) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Invalidate(ctx); err != nil {
		l.logger.Warnw("Failed to invalidate leaderboard cache", "error", err)
	}
}

// permissionDenied wraps apperr.ErrPermissionDenied with what was refused.
func permissionDenied(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), apperr.ErrPermissionDenied)
}
