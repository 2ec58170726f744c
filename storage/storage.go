package storage

import (
	"context"
	"errors"

	"geoclash/models"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// MaxLocationHistory caps the per-user location history ring
const MaxLocationHistory = 1000

// BattleStore persists battles. Implementations must return deep copies
// so callers never share mutable state with the store.
type BattleStore interface {
	Create(ctx context.Context, battle *models.Battle) error
	Get(ctx context.Context, id string) (*models.Battle, error)
	Update(ctx context.Context, battle *models.Battle) error
	ListByPlayer(ctx context.Context, userID string) ([]*models.Battle, error)
	ListActive(ctx context.Context) ([]*models.Battle, error)
	ListActiveByPlayer(ctx context.Context, userID string) ([]*models.Battle, error)
}

// LocationStore tracks live user positions, bounded position history
// and the safe-spot registry
type LocationStore interface {
	UpdateLocation(ctx context.Context, location models.UserLocation) error
	GetLocation(ctx context.Context, userID string) (*models.UserLocation, error)
	RemoveLocation(ctx context.Context, userID string) error
	SetActive(ctx context.Context, userID string, active bool) error

	// FindInRange returns active users within radiusKm of center
	FindInRange(ctx context.Context, center models.Coordinates, radiusKm float64) ([]models.UserLocation, error)

	AppendHistory(ctx context.Context, userID string, coords models.Coordinates) error
	History(ctx context.Context, userID string, limit int) ([]models.Coordinates, error)

	SafeSpots(ctx context.Context) ([]models.SafeSpot, error)
	AddSafeSpot(ctx context.Context, spot models.SafeSpot) error
}

// UserStore reads and mutates player profiles and their ranking points
type UserStore interface {
	Get(ctx context.Context, id string) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
	UpdatePoints(ctx context.Context, id string, points int) error
	UpdateRanking(ctx context.Context, id string, ranking int) error

	// TopPlayers returns users ordered by points descending
	TopPlayers(ctx context.Context, limit int) ([]*models.User, error)
}

// CharacterStore persists characters
type CharacterStore interface {
	Create(ctx context.Context, character *models.Character) error
	Get(ctx context.Context, id string) (*models.Character, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Character, error)
	Update(ctx context.Context, character *models.Character) error
	Delete(ctx context.Context, id string) error
}
