package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"geoclash/models"
)

// RedisClient connects to Redis and verifies the connection
func RedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisLocationStore backs the proximity index with Redis: a GEO set
// for range queries plus one JSON record per user
type RedisLocationStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisLocationStore creates a Redis-backed location store
func NewRedisLocationStore(client *redis.Client, logger *zap.Logger) *RedisLocationStore {
	return &RedisLocationStore{client: client, logger: logger}
}

func (s *RedisLocationStore) UpdateLocation(ctx context.Context, location models.UserLocation) error {
	locationJSON, err := json.Marshal(location)
	if err != nil {
		return fmt.Errorf("failed to marshal location: %w", err)
	}

	if err := s.client.Set(ctx, s.locationKey(location.UserID), locationJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to store location: %w", err)
	}

	err = s.client.GeoAdd(ctx, s.geoKey(), &redis.GeoLocation{
		Name:      location.UserID,
		Longitude: location.Coordinates.Longitude,
		Latitude:  location.Coordinates.Latitude,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to update geo index: %w", err)
	}

	return nil
}

func (s *RedisLocationStore) GetLocation(ctx context.Context, userID string) (*models.UserLocation, error) {
	locationJSON, err := s.client.Get(ctx, s.locationKey(userID)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}

	var location models.UserLocation
	if err := json.Unmarshal([]byte(locationJSON), &location); err != nil {
		return nil, fmt.Errorf("failed to unmarshal location: %w", err)
	}
	return &location, nil
}

func (s *RedisLocationStore) RemoveLocation(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.locationKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	if err := s.client.ZRem(ctx, s.geoKey(), userID).Err(); err != nil {
		return fmt.Errorf("failed to remove from geo index: %w", err)
	}
	return nil
}

func (s *RedisLocationStore) SetActive(ctx context.Context, userID string, active bool) error {
	location, err := s.GetLocation(ctx, userID)
	if err != nil {
		return err
	}
	location.IsActive = active
	return s.UpdateLocation(ctx, *location)
}

func (s *RedisLocationStore) FindInRange(ctx context.Context, center models.Coordinates, radiusKm float64) ([]models.UserLocation, error) {
	members, err := s.client.GeoRadius(ctx, s.geoKey(), center.Longitude, center.Latitude, &redis.GeoRadiusQuery{
		Radius: radiusKm,
		Unit:   "km",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query geo index: %w", err)
	}

	locations := make([]models.UserLocation, 0, len(members))
	for _, member := range members {
		location, err := s.GetLocation(ctx, member.Name)
		if err != nil {
			s.logger.Warn("Geo index entry without location record",
				zap.String("user_id", member.Name),
				zap.Error(err),
			)
			continue
		}
		if !location.IsActive {
			continue
		}
		locations = append(locations, *location)
	}
	return locations, nil
}

func (s *RedisLocationStore) AppendHistory(ctx context.Context, userID string, coords models.Coordinates) error {
	coordsJSON, err := json.Marshal(coords)
	if err != nil {
		return fmt.Errorf("failed to marshal coordinates: %w", err)
	}

	key := s.historyKey(userID)
	pipe := s.client.Pipeline()
	pipe.LPush(ctx, key, coordsJSON)
	pipe.LTrim(ctx, key, 0, MaxLocationHistory-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append location history: %w", err)
	}
	return nil
}

func (s *RedisLocationStore) History(ctx context.Context, userID string, limit int) ([]models.Coordinates, error) {
	if limit <= 0 {
		limit = MaxLocationHistory
	}
	entries, err := s.client.LRange(ctx, s.historyKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read location history: %w", err)
	}

	history := make([]models.Coordinates, 0, len(entries))
	for _, entry := range entries {
		var coords models.Coordinates
		if err := json.Unmarshal([]byte(entry), &coords); err != nil {
			s.logger.Warn("Failed to unmarshal history entry", zap.Error(err))
			continue
		}
		history = append(history, coords)
	}
	return history, nil
}

func (s *RedisLocationStore) SafeSpots(ctx context.Context) ([]models.SafeSpot, error) {
	entries, err := s.client.LRange(ctx, s.safeSpotKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read safe spots: %w", err)
	}

	spots := make([]models.SafeSpot, 0, len(entries))
	for _, entry := range entries {
		var spot models.SafeSpot
		if err := json.Unmarshal([]byte(entry), &spot); err != nil {
			s.logger.Warn("Failed to unmarshal safe spot", zap.Error(err))
			continue
		}
		spots = append(spots, spot)
	}
	return spots, nil
}

func (s *RedisLocationStore) AddSafeSpot(ctx context.Context, spot models.SafeSpot) error {
	spotJSON, err := json.Marshal(spot)
	if err != nil {
		return fmt.Errorf("failed to marshal safe spot: %w", err)
	}
	if err := s.client.RPush(ctx, s.safeSpotKey(), spotJSON).Err(); err != nil {
		return fmt.Errorf("failed to store safe spot: %w", err)
	}
	return nil
}

func (s *RedisLocationStore) geoKey() string {
	return "geo:users"
}

func (s *RedisLocationStore) locationKey(userID string) string {
	return fmt.Sprintf("location:%s", userID)
}

func (s *RedisLocationStore) historyKey(userID string) string {
	return fmt.Sprintf("location:history:%s", userID)
}

func (s *RedisLocationStore) safeSpotKey() string {
	return "safespots"
}

// RedisBattleStore persists battles as JSON records with per-player
// and active-battle index sets
type RedisBattleStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisBattleStore creates a Redis-backed battle store
func NewRedisBattleStore(client *redis.Client, logger *zap.Logger) *RedisBattleStore {
	return &RedisBattleStore{client: client, logger: logger}
}

func (s *RedisBattleStore) Create(ctx context.Context, battle *models.Battle) error {
	battleJSON, err := json.Marshal(battle)
	if err != nil {
		return fmt.Errorf("failed to marshal battle: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.battleKey(battle.ID), battleJSON, 0)
	pipe.SAdd(ctx, s.playerKey(battle.Player1.UserID), battle.ID)
	pipe.SAdd(ctx, s.playerKey(battle.Player2.UserID), battle.ID)
	if battle.Status == models.BattleActive || battle.Status == models.BattlePending {
		pipe.SAdd(ctx, s.activeKey(), battle.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store battle: %w", err)
	}
	return nil
}

func (s *RedisBattleStore) Get(ctx context.Context, id string) (*models.Battle, error) {
	battleJSON, err := s.client.Get(ctx, s.battleKey(id)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get battle: %w", err)
	}

	var battle models.Battle
	if err := json.Unmarshal([]byte(battleJSON), &battle); err != nil {
		return nil, fmt.Errorf("failed to unmarshal battle: %w", err)
	}
	return &battle, nil
}

func (s *RedisBattleStore) Update(ctx context.Context, battle *models.Battle) error {
	exists, err := s.client.Exists(ctx, s.battleKey(battle.ID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check battle: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}

	battleJSON, err := json.Marshal(battle)
	if err != nil {
		return fmt.Errorf("failed to marshal battle: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.battleKey(battle.ID), battleJSON, 0)
	if battle.Status == models.BattleCompleted || battle.Status == models.BattleCancelled {
		pipe.SRem(ctx, s.activeKey(), battle.ID)
	} else {
		pipe.SAdd(ctx, s.activeKey(), battle.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update battle: %w", err)
	}
	return nil
}

func (s *RedisBattleStore) ListByPlayer(ctx context.Context, userID string) ([]*models.Battle, error) {
	ids, err := s.client.SMembers(ctx, s.playerKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list player battles: %w", err)
	}
	return s.fetchAll(ctx, ids, nil)
}

func (s *RedisBattleStore) ListActive(ctx context.Context) ([]*models.Battle, error) {
	ids, err := s.client.SMembers(ctx, s.activeKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list active battles: %w", err)
	}
	return s.fetchAll(ctx, ids, func(b *models.Battle) bool {
		return b.Status == models.BattleActive
	})
}

func (s *RedisBattleStore) ListActiveByPlayer(ctx context.Context, userID string) ([]*models.Battle, error) {
	battles, err := s.ListByPlayer(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := battles[:0]
	for _, b := range battles {
		if b.Status == models.BattleActive || b.Status == models.BattlePending {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *RedisBattleStore) fetchAll(ctx context.Context, ids []string, keep func(*models.Battle) bool) ([]*models.Battle, error) {
	battles := make([]*models.Battle, 0, len(ids))
	for _, id := range ids {
		battle, err := s.Get(ctx, id)
		if err == ErrNotFound {
			s.logger.Warn("Battle index entry without record", zap.String("battle_id", id))
			continue
		}
		if err != nil {
			return nil, err
		}
		if keep != nil && !keep(battle) {
			continue
		}
		battles = append(battles, battle)
	}
	return battles, nil
}

func (s *RedisBattleStore) battleKey(id string) string {
	return fmt.Sprintf("battle:%s", id)
}

func (s *RedisBattleStore) playerKey(userID string) string {
	return fmt.Sprintf("battles:player:%s", userID)
}

func (s *RedisBattleStore) activeKey() string {
	return "battles:active"
}
