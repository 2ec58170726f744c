package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"geoclash/models"
	"geoclash/storage"
)

const (
	baseWinPoints    = 10
	maxUpsetBonus    = 20
	quickBattleBonus = 5
	quickBattleMs    = 120000
	veryQuickMs      = 60000

	// rankAll bounds a full recompute to the top players by points
	rankAll = 10000
)

// RankingService converts battle outcomes into point deltas and keeps
// the leaderboard ordering current
type RankingService struct {
	users  storage.UserStore
	logger *zap.Logger
}

// NewRankingService creates a ranking service
func NewRankingService(users storage.UserStore, logger *zap.Logger) *RankingService {
	return &RankingService{users: users, logger: logger}
}

// AwardBattlePoints credits the winner and debits the loser, then
// recomputes all rankings. Returns the points awarded to the winner.
func (s *RankingService) AwardBattlePoints(ctx context.Context, winnerID, loserID string, durationMs int64) (int, error) {
	winner, err := s.users.Get(ctx, winnerID)
	if err != nil {
		return 0, fmt.Errorf("winner: %w", err)
	}
	loser, err := s.users.Get(ctx, loserID)
	if err != nil {
		return 0, fmt.Errorf("loser: %w", err)
	}

	awarded := calculateBattlePoints(winner, loser, durationMs)
	lost := awarded / 2

	if err := winner.AddPoints(awarded); err != nil {
		return 0, err
	}
	if err := s.users.UpdatePoints(ctx, winnerID, winner.Points); err != nil {
		return 0, fmt.Errorf("failed to update winner points: %w", err)
	}

	if err := loser.DeductPoints(lost); err != nil {
		return 0, err
	}
	if err := s.users.UpdatePoints(ctx, loserID, loser.Points); err != nil {
		return 0, fmt.Errorf("failed to update loser points: %w", err)
	}

	if err := s.Recompute(ctx); err != nil {
		s.logger.Warn("Failed to recompute rankings", zap.Error(err))
	}

	s.logger.Info("Battle points awarded",
		zap.String("winner", winnerID),
		zap.String("loser", loserID),
		zap.Int("points_awarded", awarded),
		zap.Int("points_lost", lost),
		zap.Int64("duration_ms", durationMs),
	)
	return awarded, nil
}

// calculateBattlePoints: base 10, an upset bonus of min(20,
// floor(pointDiff/10)) when the loser outranked the winner, +5 under
// two minutes and +5 more under one minute. Bonuses stack.
func calculateBattlePoints(winner, loser *models.User, durationMs int64) int {
	points := baseWinPoints

	if loser.Points > winner.Points {
		upset := (loser.Points - winner.Points) / 10
		if upset > maxUpsetBonus {
			upset = maxUpsetBonus
		}
		points += upset
	}

	if durationMs < quickBattleMs {
		points += quickBattleBonus
	}
	if durationMs < veryQuickMs {
		points += quickBattleBonus
	}

	return points
}

// Leaderboard returns the top players by points, ranking positions included
func (s *RankingService) Leaderboard(ctx context.Context, limit int) ([]*models.User, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.users.TopPlayers(ctx, limit)
}

// UserRanking returns a user's profile, computing rankings first if
// this user has never been ranked
func (s *RankingService) UserRanking(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Ranking == nil {
		if err := s.Recompute(ctx); err != nil {
			return nil, err
		}
		return s.users.Get(ctx, userID)
	}
	return user, nil
}

// Recompute assigns 1-indexed rankings by points descending; the
// underlying sort is stable so ties keep their order. The pass is
// bounded to the top rankAll users; anyone past the cutoff keeps their
// previous ranking until they climb back into range.
func (s *RankingService) Recompute(ctx context.Context) error {
	users, err := s.users.TopPlayers(ctx, rankAll)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	for i, user := range users {
		rank := i + 1
		if user.Ranking != nil && *user.Ranking == rank {
			continue
		}
		if err := s.users.UpdateRanking(ctx, user.ID, rank); err != nil {
			return fmt.Errorf("failed to update ranking for %s: %w", user.ID, err)
		}
	}
	return nil
}
