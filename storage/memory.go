package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"geoclash/models"
)

// MemoryBattleStore keeps battles in process memory
type MemoryBattleStore struct {
	mu      sync.RWMutex
	battles map[string]*models.Battle
}

// NewMemoryBattleStore creates an empty in-memory battle store
func NewMemoryBattleStore() *MemoryBattleStore {
	return &MemoryBattleStore{battles: make(map[string]*models.Battle)}
}

func (s *MemoryBattleStore) Create(_ context.Context, battle *models.Battle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.battles[battle.ID] = battle.Clone()
	return nil
}

func (s *MemoryBattleStore) Get(_ context.Context, id string) (*models.Battle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	battle, ok := s.battles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return battle.Clone(), nil
}

func (s *MemoryBattleStore) Update(_ context.Context, battle *models.Battle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.battles[battle.ID]; !ok {
		return ErrNotFound
	}
	s.battles[battle.ID] = battle.Clone()
	return nil
}

func (s *MemoryBattleStore) ListByPlayer(_ context.Context, userID string) ([]*models.Battle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Battle
	for _, b := range s.battles {
		if b.IsParticipant(userID) {
			out = append(out, b.Clone())
		}
	}
	sortBattles(out)
	return out, nil
}

func (s *MemoryBattleStore) ListActive(_ context.Context) ([]*models.Battle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Battle
	for _, b := range s.battles {
		if b.Status == models.BattleActive {
			out = append(out, b.Clone())
		}
	}
	sortBattles(out)
	return out, nil
}

func (s *MemoryBattleStore) ListActiveByPlayer(_ context.Context, userID string) ([]*models.Battle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Battle
	for _, b := range s.battles {
		if b.IsParticipant(userID) && (b.Status == models.BattleActive || b.Status == models.BattlePending) {
			out = append(out, b.Clone())
		}
	}
	sortBattles(out)
	return out, nil
}

// newest first
func sortBattles(battles []*models.Battle) {
	sort.SliceStable(battles, func(i, j int) bool {
		return battles[i].CreatedAt.After(battles[j].CreatedAt)
	})
}

// MemoryLocationStore keeps live positions, history rings and safe
// spots in process memory
type MemoryLocationStore struct {
	mu        sync.RWMutex
	locations map[string]models.UserLocation
	history   map[string][]models.Coordinates
	safeSpots []models.SafeSpot
}

// NewMemoryLocationStore creates an empty in-memory location store
func NewMemoryLocationStore() *MemoryLocationStore {
	return &MemoryLocationStore{
		locations: make(map[string]models.UserLocation),
		history:   make(map[string][]models.Coordinates),
	}
}

func (s *MemoryLocationStore) UpdateLocation(_ context.Context, location models.UserLocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[location.UserID] = location
	return nil
}

func (s *MemoryLocationStore) GetLocation(_ context.Context, userID string) (*models.UserLocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	location, ok := s.locations[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &location, nil
}

func (s *MemoryLocationStore) RemoveLocation(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locations, userID)
	return nil
}

func (s *MemoryLocationStore) SetActive(_ context.Context, userID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	location, ok := s.locations[userID]
	if !ok {
		return ErrNotFound
	}
	location.IsActive = active
	location.LastUpdate = time.Now()
	s.locations[userID] = location
	return nil
}

func (s *MemoryLocationStore) FindInRange(_ context.Context, center models.Coordinates, radiusKm float64) ([]models.UserLocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.UserLocation
	for _, location := range s.locations {
		if !location.IsActive {
			continue
		}
		if models.WithinBattleRange(center, location.Coordinates, radiusKm) {
			out = append(out, location)
		}
	}
	return out, nil
}

func (s *MemoryLocationStore) AppendHistory(_ context.Context, userID string, coords models.Coordinates) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := append(s.history[userID], coords)
	if len(history) > MaxLocationHistory {
		history = history[len(history)-MaxLocationHistory:]
	}
	s.history[userID] = history
	return nil
}

func (s *MemoryLocationStore) History(_ context.Context, userID string, limit int) ([]models.Coordinates, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.history[userID]
	if limit <= 0 || limit > len(history) {
		limit = len(history)
	}
	// most recent first
	out := make([]models.Coordinates, 0, limit)
	for i := len(history) - 1; i >= len(history)-limit; i-- {
		out = append(out, history[i])
	}
	return out, nil
}

func (s *MemoryLocationStore) SafeSpots(_ context.Context) ([]models.SafeSpot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SafeSpot, len(s.safeSpots))
	copy(out, s.safeSpots)
	return out, nil
}

func (s *MemoryLocationStore) AddSafeSpot(_ context.Context, spot models.SafeSpot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.safeSpots = append(s.safeSpots, spot)
	return nil
}

// MemoryUserStore keeps user profiles in process memory
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

// NewMemoryUserStore creates an empty in-memory user store
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]*models.User)}
}

func (s *MemoryUserStore) Get(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(user), nil
}

func (s *MemoryUserStore) Upsert(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *MemoryUserStore) UpdatePoints(_ context.Context, id string, points int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	user.Points = points
	return nil
}

func (s *MemoryUserStore) UpdateRanking(_ context.Context, id string, ranking int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	user.Ranking = &ranking
	return nil
}

func (s *MemoryUserStore) TopPlayers(_ context.Context, limit int) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, cloneUser(user))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Points > out[j].Points
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func cloneUser(user *models.User) *models.User {
	out := *user
	if user.Ranking != nil {
		r := *user.Ranking
		out.Ranking = &r
	}
	return &out
}

// MemoryCharacterStore keeps characters in process memory
type MemoryCharacterStore struct {
	mu         sync.RWMutex
	characters map[string]*models.Character
}

// NewMemoryCharacterStore creates an empty in-memory character store
func NewMemoryCharacterStore() *MemoryCharacterStore {
	return &MemoryCharacterStore{characters: make(map[string]*models.Character)}
}

func (s *MemoryCharacterStore) Create(_ context.Context, character *models.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *character
	s.characters[character.ID] = &clone
	return nil
}

func (s *MemoryCharacterStore) Get(_ context.Context, id string) (*models.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	character, ok := s.characters[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *character
	return &clone, nil
}

func (s *MemoryCharacterStore) ListByUser(_ context.Context, userID string) ([]*models.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Character
	for _, character := range s.characters {
		if character.UserID == userID {
			clone := *character
			out = append(out, &clone)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryCharacterStore) Update(_ context.Context, character *models.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.characters[character.ID]; !ok {
		return ErrNotFound
	}
	clone := *character
	s.characters[character.ID] = &clone
	return nil
}

func (s *MemoryCharacterStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.characters[id]; !ok {
		return ErrNotFound
	}
	delete(s.characters, id)
	return nil
}
