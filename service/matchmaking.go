package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"geoclash/models"
	"geoclash/storage"
)

// DefaultInvitationTTL is how long the recipient has to respond
const DefaultInvitationTTL = 30 * time.Second

var (
	ErrTargetNotNearby     = errors.New("target user is no longer in range")
	ErrInvitationPending   = errors.New("a battle invitation is already pending for one of the users")
	ErrInvitationNotFound  = errors.New("invitation not found or expired")
	ErrInvitationResolved  = errors.New("invitation is no longer pending")
	ErrInvitationExpired   = errors.New("invitation has expired")
	ErrNotInvitationSender = errors.New("only the sender can cancel the invitation")
)

// MatchmakingService pairs nearby players through time-limited battle
// invitations and bridges accepted ones into the battle engine.
//
// The invitation table lives in process memory; the admission check
// ("neither party has another pending invitation") and the insert run
// under one mutex so concurrent sends for the same pair leave exactly
// one invitation standing.
type MatchmakingService struct {
	locations  *LocationService
	battles    *BattleService
	characters storage.CharacterStore
	logger     *zap.Logger
	ttl        time.Duration
	now        func() time.Time

	mu          sync.Mutex
	invitations map[string]*models.BattleInvitation
	scheduler   *expiryScheduler
}

// NewMatchmakingService creates a matchmaking coordinator. A zero ttl
// falls back to DefaultInvitationTTL.
func NewMatchmakingService(locations *LocationService, battles *BattleService, characters storage.CharacterStore, logger *zap.Logger, ttl time.Duration) *MatchmakingService {
	if ttl <= 0 {
		ttl = DefaultInvitationTTL
	}
	s := &MatchmakingService{
		locations:   locations,
		battles:     battles,
		characters:  characters,
		logger:      logger,
		ttl:         ttl,
		now:         time.Now,
		invitations: make(map[string]*models.BattleInvitation),
	}
	s.scheduler = newExpiryScheduler(s.ExpireInvitation)
	return s
}

// Run drives invitation expiry until ctx is done
func (s *MatchmakingService) Run(ctx context.Context) {
	s.scheduler.Run(ctx)
}

// FindNearbyOpponents returns battle-eligible users around userID
func (s *MatchmakingService) FindNearbyOpponents(ctx context.Context, userID, characterID string, radiusKm float64) ([]models.UserLocation, error) {
	if _, err := s.characters.Get(ctx, characterID); err != nil {
		return nil, fmt.Errorf("character: %w", err)
	}
	return s.locations.FindNearbyUsers(ctx, userID, radiusKm)
}

// SendInvitation creates a pending invitation after re-validating that
// the target is still in battle range
func (s *MatchmakingService) SendInvitation(ctx context.Context, fromUserID, toUserID, fromCharacterID, toCharacterID string) (*models.BattleInvitation, error) {
	nearby, err := s.locations.FindNearbyUsers(ctx, fromUserID, s.locations.BattleRangeKm())
	if err != nil {
		return nil, err
	}
	targetNearby := false
	for _, user := range nearby {
		if user.UserID == toUserID {
			targetNearby = true
			break
		}
	}
	if !targetNearby {
		return nil, ErrTargetNotNearby
	}

	invitation, err := models.NewBattleInvitation(fromUserID, toUserID, fromCharacterID, toCharacterID, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	s.mu.Lock()
	for _, existing := range s.invitations {
		if existing.Status != models.InvitationPending {
			continue
		}
		if existing.Involves(fromUserID) || existing.Involves(toUserID) {
			s.mu.Unlock()
			return nil, ErrInvitationPending
		}
	}
	s.invitations[invitation.ID] = invitation
	s.mu.Unlock()

	s.scheduler.Schedule(invitation.ID, invitation.ExpiresAt)

	s.logger.Info("Invitation sent",
		zap.String("invitation_id", invitation.ID),
		zap.String("from", fromUserID),
		zap.String("to", toUserID),
		zap.Time("expires_at", invitation.ExpiresAt),
	)
	clone := *invitation
	return &clone, nil
}

// RespondToInvitation accepts or declines a pending invitation. An
// accept creates and starts a battle; the returned battle is nil on
// decline.
func (s *MatchmakingService) RespondToInvitation(ctx context.Context, invitationID string, accepted bool) (*models.BattleInvitation, *models.Battle, error) {
	s.mu.Lock()
	invitation, ok := s.invitations[invitationID]
	if !ok {
		s.mu.Unlock()
		return nil, nil, ErrInvitationNotFound
	}
	if invitation.Status != models.InvitationPending {
		s.mu.Unlock()
		return nil, nil, ErrInvitationResolved
	}
	if invitation.IsExpired(s.now()) {
		invitation.Status = models.InvitationExpired
		delete(s.invitations, invitationID)
		s.mu.Unlock()
		s.scheduler.Cancel(invitationID)
		return nil, nil, ErrInvitationExpired
	}

	if accepted {
		invitation.Status = models.InvitationAccepted
	} else {
		invitation.Status = models.InvitationDeclined
	}
	delete(s.invitations, invitationID)
	clone := *invitation
	s.mu.Unlock()
	s.scheduler.Cancel(invitationID)

	if !accepted {
		s.logger.Info("Invitation declined", zap.String("invitation_id", invitationID))
		return &clone, nil, nil
	}

	battle, err := s.battles.CreateBattle(ctx, clone.FromUserID, clone.ToUserID, clone.FromCharacterID, clone.ToCharacterID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create battle: %w", err)
	}
	battle, err = s.battles.StartBattle(ctx, battle.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start battle: %w", err)
	}

	s.logger.Info("Invitation accepted",
		zap.String("invitation_id", invitationID),
		zap.String("battle_id", battle.ID),
	)
	return &clone, battle, nil
}

// CancelInvitation withdraws a pending invitation; sender only
func (s *MatchmakingService) CancelInvitation(ctx context.Context, invitationID, byUserID string) (*models.BattleInvitation, error) {
	s.mu.Lock()
	invitation, ok := s.invitations[invitationID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrInvitationNotFound
	}
	if invitation.FromUserID != byUserID {
		s.mu.Unlock()
		return nil, ErrNotInvitationSender
	}
	if invitation.Status != models.InvitationPending {
		s.mu.Unlock()
		return nil, ErrInvitationResolved
	}
	delete(s.invitations, invitationID)
	clone := *invitation
	s.mu.Unlock()
	s.scheduler.Cancel(invitationID)

	s.logger.Info("Invitation cancelled",
		zap.String("invitation_id", invitationID),
		zap.String("by", byUserID),
	)
	return &clone, nil
}

// ExpireInvitation marks a still-pending invitation expired and drops
// it from the table. Idempotent; a stale timer firing after the
// invitation resolved does nothing.
func (s *MatchmakingService) ExpireInvitation(invitationID string) {
	s.mu.Lock()
	invitation, ok := s.invitations[invitationID]
	if !ok || invitation.Status != models.InvitationPending {
		s.mu.Unlock()
		return
	}
	invitation.Status = models.InvitationExpired
	delete(s.invitations, invitationID)
	s.mu.Unlock()

	s.logger.Info("Invitation expired", zap.String("invitation_id", invitationID))
}

// ListInvitations returns pending, unexpired invitations where userID
// is sender or recipient
func (s *MatchmakingService) ListInvitations(ctx context.Context, userID string) ([]models.BattleInvitation, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.BattleInvitation, 0)
	for _, invitation := range s.invitations {
		if invitation.Status != models.InvitationPending {
			continue
		}
		if invitation.IsExpired(now) {
			continue
		}
		if invitation.Involves(userID) {
			out = append(out, *invitation)
		}
	}
	return out, nil
}
