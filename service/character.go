package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"geoclash/models"
	"geoclash/storage"
)

// CharacterService manages character lifecycles over the character store
type CharacterService struct {
	store  storage.CharacterStore
	logger *zap.Logger
}

// NewCharacterService creates a character service
func NewCharacterService(store storage.CharacterStore, logger *zap.Logger) *CharacterService {
	return &CharacterService{store: store, logger: logger}
}

// Create validates and stores a new character
func (s *CharacterService) Create(ctx context.Context, userID string, tier int, name string, stats models.CharacterStats) (*models.Character, error) {
	character, err := models.NewCharacter(userID, tier, name, stats)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, character); err != nil {
		return nil, fmt.Errorf("failed to store character: %w", err)
	}

	s.logger.Info("Character created",
		zap.String("character_id", character.ID),
		zap.String("user_id", userID),
		zap.String("name", character.Name),
		zap.Int("tier", character.Tier),
	)
	return character, nil
}

// Get returns one character by id
func (s *CharacterService) Get(ctx context.Context, id string) (*models.Character, error) {
	return s.store.Get(ctx, id)
}

// ListByUser returns all of a user's characters
func (s *CharacterService) ListByUser(ctx context.Context, userID string) ([]*models.Character, error) {
	return s.store.ListByUser(ctx, userID)
}

// UpdateStats applies a partial stat update, validating the merged result
func (s *CharacterService) UpdateStats(ctx context.Context, id string, update models.StatUpdate) (*models.Character, error) {
	character, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := character.UpdateStats(update); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, character); err != nil {
		return nil, fmt.Errorf("failed to store character: %w", err)
	}
	return character, nil
}

// UpgradeTier raises a character's tier
func (s *CharacterService) UpgradeTier(ctx context.Context, id string, newTier int) (*models.Character, error) {
	character, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := character.UpgradeTier(newTier); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, character); err != nil {
		return nil, fmt.Errorf("failed to store character: %w", err)
	}

	s.logger.Info("Character tier upgraded",
		zap.String("character_id", id),
		zap.Int("tier", newTier),
	)
	return character, nil
}

// Delete removes a character after confirming it exists
func (s *CharacterService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Character deleted", zap.String("character_id", id))
	return nil
}
