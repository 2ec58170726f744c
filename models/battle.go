package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// BattleStatus is the lifecycle state of a battle
type BattleStatus string

const (
	BattlePending   BattleStatus = "pending"
	BattleActive    BattleStatus = "active"
	BattleCompleted BattleStatus = "completed"
	BattleCancelled BattleStatus = "cancelled"
)

// DefaultMaxHP is the full hit-point pool every participant starts with
const DefaultMaxHP = 100

var (
	ErrSelfBattle        = errors.New("players cannot battle themselves")
	ErrInvalidTransition = errors.New("invalid battle state transition")
	ErrNotYourTurn       = errors.New("not your turn to attack")
	ErrNotParticipant    = errors.New("user is not a battle participant")
	ErrInvalidWinner     = errors.New("winner must be one of the battle participants")
	ErrNegativeDamage    = errors.New("damage cannot be negative")
)

// BattleParticipant is one side of a battle. Owned exclusively by its
// Battle; query helpers hand out copies.
type BattleParticipant struct {
	UserID      string `json:"user_id"`
	CharacterID string `json:"character_id"`
	CurrentHP   int    `json:"current_hp"`
	MaxHP       int    `json:"max_hp"`
	IsAlive     bool   `json:"is_alive"`
}

// Battle is a turn-based fight between two participants.
//
// Legal transitions: pending -> active, pending -> cancelled,
// active -> completed, active -> cancelled. Completed and cancelled
// are terminal.
type Battle struct {
	ID              string            `json:"id"`
	Player1         BattleParticipant `json:"player1"`
	Player2         BattleParticipant `json:"player2"`
	WinnerID        *string           `json:"winner_id"`
	CurrentTurn     *string           `json:"current_turn"`
	Status          BattleStatus      `json:"status"`
	DurationMs      *int64            `json:"duration_ms"`
	PointsAwarded   int               `json:"points_awarded"`
	BattleTimestamp time.Time         `json:"battle_timestamp"`
	CreatedAt       time.Time         `json:"created_at"`
}

// NewBattle creates a pending battle with both participants at full HP
func NewBattle(player1ID, player2ID, character1ID, character2ID string) (*Battle, error) {
	if player1ID == player2ID {
		return nil, ErrSelfBattle
	}

	now := time.Now()
	return &Battle{
		ID: uuid.New().String(),
		Player1: BattleParticipant{
			UserID:      player1ID,
			CharacterID: character1ID,
			CurrentHP:   DefaultMaxHP,
			MaxHP:       DefaultMaxHP,
			IsAlive:     true,
		},
		Player2: BattleParticipant{
			UserID:      player2ID,
			CharacterID: character2ID,
			CurrentHP:   DefaultMaxHP,
			MaxHP:       DefaultMaxHP,
			IsAlive:     true,
		},
		Status:          BattlePending,
		BattleTimestamp: now,
		CreatedAt:       now,
	}, nil
}

// Start activates a pending battle; player1 moves first
func (b *Battle) Start() error {
	if b.Status != BattlePending {
		return ErrInvalidTransition
	}
	b.Status = BattleActive
	turn := b.Player1.UserID
	b.CurrentTurn = &turn
	b.BattleTimestamp = time.Now()
	return nil
}

// ApplyAttack subtracts damage from the attacker's opponent. A zero
// damage attack (a miss) changes no HP but still hands the turn over.
// When the defender's HP reaches zero the battle completes with the
// attacker as winner.
func (b *Battle) ApplyAttack(attackerID string, damage int) error {
	if b.Status != BattleActive {
		return ErrInvalidTransition
	}
	if !b.IsParticipant(attackerID) {
		return ErrNotParticipant
	}
	if b.CurrentTurn == nil || *b.CurrentTurn != attackerID {
		return ErrNotYourTurn
	}
	if damage < 0 {
		return ErrNegativeDamage
	}

	defender := b.opponentOf(attackerID)
	defender.CurrentHP -= damage
	if defender.CurrentHP < 0 {
		defender.CurrentHP = 0
	}
	defender.IsAlive = defender.CurrentHP > 0

	if !defender.IsAlive {
		return b.End(attackerID)
	}

	turn := defender.UserID
	b.CurrentTurn = &turn
	return nil
}

// End completes an active battle with the given winner
func (b *Battle) End(winnerID string) error {
	if b.Status != BattleActive {
		return ErrInvalidTransition
	}
	if !b.IsParticipant(winnerID) {
		return ErrInvalidWinner
	}
	b.Status = BattleCompleted
	winner := winnerID
	b.WinnerID = &winner
	b.CurrentTurn = nil
	duration := time.Since(b.BattleTimestamp).Milliseconds()
	b.DurationMs = &duration
	return nil
}

// Cancel aborts a battle that has not completed yet
func (b *Battle) Cancel() error {
	if b.Status == BattleCompleted || b.Status == BattleCancelled {
		return ErrInvalidTransition
	}
	b.Status = BattleCancelled
	b.CurrentTurn = nil
	return nil
}

// Participant returns a copy of the participant for the given user id
func (b *Battle) Participant(userID string) (BattleParticipant, bool) {
	switch userID {
	case b.Player1.UserID:
		return b.Player1, true
	case b.Player2.UserID:
		return b.Player2, true
	}
	return BattleParticipant{}, false
}

// IsParticipant reports whether userID is one of the two players
func (b *Battle) IsParticipant(userID string) bool {
	return userID == b.Player1.UserID || userID == b.Player2.UserID
}

// OpponentID returns the other participant's user id
func (b *Battle) OpponentID(userID string) (string, bool) {
	switch userID {
	case b.Player1.UserID:
		return b.Player2.UserID, true
	case b.Player2.UserID:
		return b.Player1.UserID, true
	}
	return "", false
}

// Clone returns a deep copy of the battle
func (b *Battle) Clone() *Battle {
	out := *b
	if b.WinnerID != nil {
		w := *b.WinnerID
		out.WinnerID = &w
	}
	if b.CurrentTurn != nil {
		t := *b.CurrentTurn
		out.CurrentTurn = &t
	}
	if b.DurationMs != nil {
		d := *b.DurationMs
		out.DurationMs = &d
	}
	return &out
}

func (b *Battle) opponentOf(userID string) *BattleParticipant {
	if userID == b.Player1.UserID {
		return &b.Player2
	}
	return &b.Player1
}
