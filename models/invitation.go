package models

import (
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// InvitationStatus is the lifecycle state of a battle invitation
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationExpired  InvitationStatus = "expired"
)

// BattleInvitation is a time-limited challenge from one nearby player
// to another. Pending is the only non-terminal state.
type BattleInvitation struct {
	ID              string           `json:"id"`
	FromUserID      string           `json:"from_user_id"`
	ToUserID        string           `json:"to_user_id"`
	FromCharacterID string           `json:"from_character_id"`
	ToCharacterID   string           `json:"to_character_id"`
	Status          InvitationStatus `json:"status"`
	ExpiresAt       time.Time        `json:"expires_at"`
	CreatedAt       time.Time        `json:"created_at"`
}

// NewBattleInvitation creates a pending invitation expiring after ttl
func NewBattleInvitation(fromUserID, toUserID, fromCharacterID, toCharacterID string, ttl time.Duration) (*BattleInvitation, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &BattleInvitation{
		ID:              id,
		FromUserID:      fromUserID,
		ToUserID:        toUserID,
		FromCharacterID: fromCharacterID,
		ToCharacterID:   toCharacterID,
		Status:          InvitationPending,
		ExpiresAt:       now.Add(ttl),
		CreatedAt:       now,
	}, nil
}

// Involves reports whether userID is the sender or the recipient
func (inv *BattleInvitation) Involves(userID string) bool {
	return inv.FromUserID == userID || inv.ToUserID == userID
}

// IsExpired reports whether the invitation deadline has passed
func (inv *BattleInvitation) IsExpired(now time.Time) bool {
	return now.After(inv.ExpiresAt)
}
