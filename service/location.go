package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"geoclash/models"
	"geoclash/storage"
)

const defaultHistoryLimit = 50

// LocationService maintains the proximity index: live positions,
// bounded history and safe-zone gating of nearby queries
type LocationService struct {
	store         storage.LocationStore
	logger        *zap.Logger
	battleRangeKm float64
	safeRadiusKm  float64
}

// NewLocationService creates a location service with the given ranges
func NewLocationService(store storage.LocationStore, logger *zap.Logger, battleRangeKm, safeRadiusKm float64) *LocationService {
	if battleRangeKm <= 0 {
		battleRangeKm = models.DefaultBattleRangeKm
	}
	if safeRadiusKm <= 0 {
		safeRadiusKm = models.DefaultSafeRadiusKm
	}
	return &LocationService{
		store:         store,
		logger:        logger,
		battleRangeKm: battleRangeKm,
		safeRadiusKm:  safeRadiusKm,
	}
}

// BattleRangeKm is the default radius for nearby-opponent queries
func (s *LocationService) BattleRangeKm() float64 {
	return s.battleRangeKm
}

// UpdateLocation validates and upserts a user's position, appends it to
// the history ring and marks the user active. Returns whether the new
// position is inside a safe spot.
func (s *LocationService) UpdateLocation(ctx context.Context, userID string, latitude, longitude, accuracy float64) (bool, error) {
	coords, err := models.NewCoordinates(latitude, longitude, accuracy)
	if err != nil {
		return false, err
	}

	inSafeSpot, err := s.IsInSafeSpot(ctx, coords)
	if err != nil {
		return false, err
	}

	location := models.UserLocation{
		UserID:      userID,
		Coordinates: coords,
		IsActive:    true,
		LastUpdate:  time.Now(),
	}
	if err := s.store.UpdateLocation(ctx, location); err != nil {
		return false, fmt.Errorf("failed to update location: %w", err)
	}
	if err := s.store.AppendHistory(ctx, userID, coords); err != nil {
		// history is best effort; the live position already landed
		s.logger.Warn("Failed to append location history",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	return inSafeSpot, nil
}

// GetLocation returns a user's last reported position
func (s *LocationService) GetLocation(ctx context.Context, userID string) (*models.UserLocation, error) {
	return s.store.GetLocation(ctx, userID)
}

// UsersInRange returns active users within radiusKm of center
func (s *LocationService) UsersInRange(ctx context.Context, center models.Coordinates, radiusKm float64) ([]models.UserLocation, error) {
	return s.store.FindInRange(ctx, center, radiusKm)
}

// FindNearbyUsers returns battle-eligible users around userID: active,
// within radius, not the user themself and not inside a safe spot. A
// user with no stored location, or one standing in a safe spot, gets an
// empty result rather than an error.
func (s *LocationService) FindNearbyUsers(ctx context.Context, userID string, radiusKm float64) ([]models.UserLocation, error) {
	if radiusKm <= 0 {
		radiusKm = s.battleRangeKm
	}

	location, err := s.store.GetLocation(ctx, userID)
	if err == storage.ErrNotFound {
		return []models.UserLocation{}, nil
	}
	if err != nil {
		return nil, err
	}

	inSafeSpot, err := s.IsInSafeSpot(ctx, location.Coordinates)
	if err != nil {
		return nil, err
	}
	if inSafeSpot {
		return []models.UserLocation{}, nil
	}

	candidates, err := s.store.FindInRange(ctx, location.Coordinates, radiusKm)
	if err != nil {
		return nil, err
	}

	spots, err := s.store.SafeSpots(ctx)
	if err != nil {
		return nil, err
	}

	nearby := make([]models.UserLocation, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.UserID == userID {
			continue
		}
		if models.InSafeSpot(candidate.Coordinates, spots, s.safeRadiusKm) {
			continue
		}
		nearby = append(nearby, candidate)
	}
	return nearby, nil
}

// IsInSafeSpot reports whether coords fall inside any registered safe spot
func (s *LocationService) IsInSafeSpot(ctx context.Context, coords models.Coordinates) (bool, error) {
	spots, err := s.store.SafeSpots(ctx)
	if err != nil {
		return false, err
	}
	return models.InSafeSpot(coords, spots, s.safeRadiusKm), nil
}

// SafeSpots lists all registered safe spots
func (s *LocationService) SafeSpots(ctx context.Context) ([]models.SafeSpot, error) {
	return s.store.SafeSpots(ctx)
}

// AddSafeSpot registers a new safe spot
func (s *LocationService) AddSafeSpot(ctx context.Context, spot models.SafeSpot) error {
	return s.store.AddSafeSpot(ctx, spot)
}

// NearestSafeSpot returns the closest safe spot to the given point, or
// nil when none are registered
func (s *LocationService) NearestSafeSpot(ctx context.Context, coords models.Coordinates) (*models.SafeSpot, error) {
	spots, err := s.store.SafeSpots(ctx)
	if err != nil {
		return nil, err
	}

	var nearest *models.SafeSpot
	var shortest float64
	for i := range spots {
		distance := models.HaversineKm(coords.Latitude, coords.Longitude, spots[i].Latitude, spots[i].Longitude)
		if nearest == nil || distance < shortest {
			nearest = &spots[i]
			shortest = distance
		}
	}
	return nearest, nil
}

// History returns a user's recent positions, most recent first
func (s *LocationService) History(ctx context.Context, userID string, limit int) ([]models.Coordinates, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.store.History(ctx, userID, limit)
}

// Deactivate removes a user from the proximity index
func (s *LocationService) Deactivate(ctx context.Context, userID string) error {
	if err := s.store.SetActive(ctx, userID, false); err != nil && err != storage.ErrNotFound {
		return err
	}
	if err := s.store.RemoveLocation(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("User deactivated", zap.String("user_id", userID))
	return nil
}
