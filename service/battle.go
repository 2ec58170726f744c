package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"geoclash/models"
	"geoclash/storage"
)

const attackOptionCount = 3

var (
	ErrPlayerBusy    = errors.New("player is already in an active battle")
	ErrUnknownAttack = errors.New("invalid attack type")
)

// BattleStatistics summarizes a player's completed battles
type BattleStatistics struct {
	TotalBattles      int     `json:"total_battles"`
	Wins              int     `json:"wins"`
	Losses            int     `json:"losses"`
	WinRate           float64 `json:"win_rate"`
	AverageDurationMs int64   `json:"average_duration_ms"`
}

// BattleService owns battle lifecycles. All mutating operations on one
// battle are serialized through a per-battle mutex, so a racing attack
// fails the turn check instead of corrupting HP.
type BattleService struct {
	battles    storage.BattleStore
	characters storage.CharacterStore
	resolver   *CombatResolver
	ranking    *RankingService
	logger     *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewBattleService creates a battle service. ranking may be nil when
// point awards are not wired.
func NewBattleService(battles storage.BattleStore, characters storage.CharacterStore, resolver *CombatResolver, ranking *RankingService, logger *zap.Logger) *BattleService {
	return &BattleService{
		battles:    battles,
		characters: characters,
		resolver:   resolver,
		ranking:    ranking,
		logger:     logger,
		locks:      make(map[string]*sync.Mutex),
	}
}

// CreateBattle validates both players and characters and stores a
// pending battle
func (s *BattleService) CreateBattle(ctx context.Context, player1ID, player2ID, character1ID, character2ID string) (*models.Battle, error) {
	if player1ID == player2ID {
		return nil, models.ErrSelfBattle
	}

	if _, err := s.characters.Get(ctx, character1ID); err != nil {
		return nil, fmt.Errorf("character 1: %w", err)
	}
	if _, err := s.characters.Get(ctx, character2ID); err != nil {
		return nil, fmt.Errorf("character 2: %w", err)
	}

	for _, playerID := range []string{player1ID, player2ID} {
		active, err := s.battles.ListActiveByPlayer(ctx, playerID)
		if err != nil {
			return nil, fmt.Errorf("failed to check active battles: %w", err)
		}
		if len(active) > 0 {
			return nil, ErrPlayerBusy
		}
	}

	battle, err := models.NewBattle(player1ID, player2ID, character1ID, character2ID)
	if err != nil {
		return nil, err
	}
	if err := s.battles.Create(ctx, battle); err != nil {
		return nil, fmt.Errorf("failed to store battle: %w", err)
	}

	s.logger.Info("Battle created",
		zap.String("battle_id", battle.ID),
		zap.String("player1", player1ID),
		zap.String("player2", player2ID),
	)
	return battle, nil
}

// StartBattle activates a pending battle
func (s *BattleService) StartBattle(ctx context.Context, battleID string) (*models.Battle, error) {
	unlock := s.lockBattle(battleID)
	defer unlock()

	battle, err := s.battles.Get(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if err := battle.Start(); err != nil {
		return nil, err
	}
	if err := s.battles.Update(ctx, battle); err != nil {
		return nil, fmt.Errorf("failed to store battle: %w", err)
	}

	s.logger.Info("Battle started", zap.String("battle_id", battle.ID))
	return battle, nil
}

// AttackOptions returns up to three distinct attack choices for the
// participant whose turn it is
func (s *BattleService) AttackOptions(ctx context.Context, battleID, userID string) ([]models.AttackType, error) {
	battle, err := s.battles.Get(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if battle.Status != models.BattleActive {
		return nil, models.ErrInvalidTransition
	}
	if battle.CurrentTurn == nil || *battle.CurrentTurn != userID {
		return nil, models.ErrNotYourTurn
	}
	return s.resolver.AttackOptions(attackOptionCount), nil
}

// PerformAttack resolves one attack and applies it to the battle. An
// empty attackID picks a random attack from the catalog. On a kill the
// battle completes and ranking points are awarded.
func (s *BattleService) PerformAttack(ctx context.Context, battleID, attackerID, attackID string) (*models.Battle, *models.AttackResult, error) {
	unlock := s.lockBattle(battleID)
	defer unlock()

	battle, err := s.battles.Get(ctx, battleID)
	if err != nil {
		return nil, nil, err
	}
	if battle.Status != models.BattleActive {
		return nil, nil, models.ErrInvalidTransition
	}
	if !battle.IsParticipant(attackerID) {
		return nil, nil, models.ErrNotParticipant
	}
	if battle.CurrentTurn == nil || *battle.CurrentTurn != attackerID {
		return nil, nil, models.ErrNotYourTurn
	}

	participant, _ := battle.Participant(attackerID)
	attacker, err := s.characters.Get(ctx, participant.CharacterID)
	if err != nil {
		return nil, nil, fmt.Errorf("attacker character: %w", err)
	}

	var result models.AttackResult
	if attackID == "" {
		result = s.resolver.ResolveRandomAttack(attacker.Stats)
	} else {
		attackType := models.AttackTypeByID(attackID)
		if attackType == nil {
			return nil, nil, ErrUnknownAttack
		}
		result = s.resolver.ResolveAttack(*attackType, attacker.Stats)
	}

	defenderID, _ := battle.OpponentID(attackerID)
	if err := battle.ApplyAttack(attackerID, result.Damage); err != nil {
		return nil, nil, err
	}

	if battle.Status == models.BattleCompleted && s.ranking != nil && battle.DurationMs != nil {
		points, err := s.ranking.AwardBattlePoints(ctx, attackerID, defenderID, *battle.DurationMs)
		if err != nil {
			s.logger.Warn("Failed to award battle points",
				zap.String("battle_id", battle.ID),
				zap.Error(err),
			)
		} else {
			battle.PointsAwarded = points
		}
	}

	if err := s.battles.Update(ctx, battle); err != nil {
		return nil, nil, fmt.Errorf("failed to store battle: %w", err)
	}

	s.logger.Info("Attack resolved",
		zap.String("battle_id", battle.ID),
		zap.String("attacker", attackerID),
		zap.String("attack_id", result.AttackID),
		zap.Int("damage", result.Damage),
		zap.Bool("hit", result.IsHit),
		zap.Bool("critical", result.IsCritical),
		zap.String("status", string(battle.Status)),
	)
	return battle, &result, nil
}

// CancelBattle aborts a battle; only participants may cancel
func (s *BattleService) CancelBattle(ctx context.Context, battleID, userID string) (*models.Battle, error) {
	unlock := s.lockBattle(battleID)
	defer unlock()

	battle, err := s.battles.Get(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if !battle.IsParticipant(userID) {
		return nil, models.ErrNotParticipant
	}
	if err := battle.Cancel(); err != nil {
		return nil, err
	}
	if err := s.battles.Update(ctx, battle); err != nil {
		return nil, fmt.Errorf("failed to store battle: %w", err)
	}

	s.logger.Info("Battle cancelled",
		zap.String("battle_id", battle.ID),
		zap.String("by", userID),
	)
	return battle, nil
}

// GetBattle returns one battle by id
func (s *BattleService) GetBattle(ctx context.Context, battleID string) (*models.Battle, error) {
	return s.battles.Get(ctx, battleID)
}

// PlayerBattles returns all battles a user has taken part in
func (s *BattleService) PlayerBattles(ctx context.Context, userID string) ([]*models.Battle, error) {
	return s.battles.ListByPlayer(ctx, userID)
}

// ActiveBattles returns every currently active battle
func (s *BattleService) ActiveBattles(ctx context.Context) ([]*models.Battle, error) {
	return s.battles.ListActive(ctx)
}

// Statistics aggregates a player's completed battles
func (s *BattleService) Statistics(ctx context.Context, userID string) (*BattleStatistics, error) {
	battles, err := s.battles.ListByPlayer(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &BattleStatistics{}
	var totalDuration int64
	var withDuration int64
	for _, battle := range battles {
		if battle.Status != models.BattleCompleted {
			continue
		}
		stats.TotalBattles++
		if battle.WinnerID != nil && *battle.WinnerID == userID {
			stats.Wins++
		} else {
			stats.Losses++
		}
		if battle.DurationMs != nil {
			totalDuration += *battle.DurationMs
			withDuration++
		}
	}
	if stats.TotalBattles > 0 {
		stats.WinRate = math.Round(float64(stats.Wins)/float64(stats.TotalBattles)*10000) / 100
	}
	if withDuration > 0 {
		stats.AverageDurationMs = totalDuration / withDuration
	}
	return stats, nil
}

// lockBattle serializes mutations per battle id
func (s *BattleService) lockBattle(battleID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[battleID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[battleID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
