package models

import (
	"errors"
	"math"
	"time"
)

const (
	// EarthRadiusKm is the haversine sphere radius
	EarthRadiusKm = 6371.0

	// DefaultBattleRangeKm is how close two players must be to battle (100 m)
	DefaultBattleRangeKm = 0.1

	// DefaultSafeRadiusKm is the no-battle radius around a safe spot (50 m)
	DefaultSafeRadiusKm = 0.05
)

var (
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90 degrees")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180 degrees")
)

// Coordinates is a single position report
type Coordinates struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewCoordinates validates and builds a position report
func NewCoordinates(latitude, longitude, accuracy float64) (Coordinates, error) {
	if latitude < -90 || latitude > 90 {
		return Coordinates{}, ErrInvalidLatitude
	}
	if longitude < -180 || longitude > 180 {
		return Coordinates{}, ErrInvalidLongitude
	}
	return Coordinates{
		Latitude:  latitude,
		Longitude: longitude,
		Accuracy:  accuracy,
		Timestamp: time.Now(),
	}, nil
}

// UserLocation is the last known position of a user; one record per
// user, last write wins
type UserLocation struct {
	UserID      string      `json:"user_id"`
	Coordinates Coordinates `json:"coordinates"`
	IsActive    bool        `json:"is_active"`
	LastUpdate  time.Time   `json:"last_update"`
}

// SafeSpot is an administrator-defined no-battle zone
type SafeSpot struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
}

// HaversineKm is the great-circle distance in kilometers between two points
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// DistanceKm is the haversine distance between two coordinate pairs
func DistanceKm(a, b Coordinates) float64 {
	return HaversineKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// WithinBattleRange reports whether two positions are close enough to battle
func WithinBattleRange(a, b Coordinates, maxDistanceKm float64) bool {
	return DistanceKm(a, b) <= maxDistanceKm
}

// InSafeSpot reports whether coords fall inside any safe spot's radius.
// An empty spot list means no position is safe.
func InSafeSpot(coords Coordinates, spots []SafeSpot, safeRadiusKm float64) bool {
	for _, spot := range spots {
		if HaversineKm(coords.Latitude, coords.Longitude, spot.Latitude, spot.Longitude) <= safeRadiusKm {
			return true
		}
	}
	return false
}

func toRadians(degrees float64) float64 {
	return degrees * (math.Pi / 180)
}
