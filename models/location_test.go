package models

import (
	"math"
	"testing"
)

// --- haversine ---

func TestHaversineKm_SamePoint(t *testing.T) {
	d := HaversineKm(40.7128, -74.0060, 40.7128, -74.0060)
	if math.Abs(d) > 1e-5 {
		t.Fatalf("distance between a point and itself should be ~0, got %g", d)
	}
}

func TestHaversineKm_NewYorkToLosAngeles(t *testing.T) {
	d := HaversineKm(40.7128, -74.0060, 34.0522, -118.2437)
	if d < 3900 || d > 4000 {
		t.Fatalf("NYC to LA should be roughly 3944 km, got %.1f", d)
	}
}

func TestHaversineKm_Symmetric(t *testing.T) {
	ab := HaversineKm(40.7128, -74.0060, 34.0522, -118.2437)
	ba := HaversineKm(34.0522, -118.2437, 40.7128, -74.0060)
	if math.Abs(ab-ba) > 1e-9 {
		t.Fatalf("distance should be symmetric: %.9f vs %.9f", ab, ba)
	}
}

func TestWithinBattleRange(t *testing.T) {
	a := Coordinates{Latitude: 40.7128, Longitude: -74.0060}
	b := Coordinates{Latitude: 40.7129, Longitude: -74.0061} // ~15 m away
	if !WithinBattleRange(a, b, DefaultBattleRangeKm) {
		t.Fatal("points ~15 m apart should be within the 100 m battle range")
	}
	far := Coordinates{Latitude: 40.7228, Longitude: -74.0060} // ~1.1 km away
	if WithinBattleRange(a, far, DefaultBattleRangeKm) {
		t.Fatal("points over 1 km apart should not be within battle range")
	}
}

// --- coordinate validation ---

func TestNewCoordinates_Valid(t *testing.T) {
	c, err := NewCoordinates(40.7128, -74.0060, 5.0)
	if err != nil {
		t.Fatalf("NewCoordinates: %v", err)
	}
	if c.Latitude != 40.7128 || c.Longitude != -74.0060 {
		t.Fatalf("coordinates not preserved: %+v", c)
	}
	if c.Timestamp.IsZero() {
		t.Fatal("coordinates should be timestamped")
	}
}

func TestNewCoordinates_Invalid(t *testing.T) {
	cases := []struct {
		lat, lon float64
		want     error
	}{
		{91, 0, ErrInvalidLatitude},
		{-91, 0, ErrInvalidLatitude},
		{0, 181, ErrInvalidLongitude},
		{0, -181, ErrInvalidLongitude},
	}
	for _, tc := range cases {
		if _, err := NewCoordinates(tc.lat, tc.lon, 0); err != tc.want {
			t.Fatalf("(%g, %g): expected %v, got %v", tc.lat, tc.lon, tc.want, err)
		}
	}
}

// --- safe spots ---

func TestInSafeSpot_WithinRadius(t *testing.T) {
	spots := []SafeSpot{{ID: 1, Name: "Library", Latitude: 40.7128, Longitude: -74.0060}}
	// ~15 m from the spot, well inside the 50 m radius
	coords := Coordinates{Latitude: 40.7129, Longitude: -74.0061}
	if !InSafeSpot(coords, spots, DefaultSafeRadiusKm) {
		t.Fatal("position ~15 m from a safe spot should be safe")
	}
}

func TestInSafeSpot_OutsideRadius(t *testing.T) {
	spots := []SafeSpot{{ID: 1, Name: "Library", Latitude: 40.7128, Longitude: -74.0060}}
	// ~500 m north of the spot
	coords := Coordinates{Latitude: 40.7173, Longitude: -74.0060}
	if InSafeSpot(coords, spots, DefaultSafeRadiusKm) {
		t.Fatal("position ~500 m from a safe spot should not be safe")
	}
}

func TestInSafeSpot_EmptyList(t *testing.T) {
	coords := Coordinates{Latitude: 40.7128, Longitude: -74.0060}
	if InSafeSpot(coords, nil, DefaultSafeRadiusKm) {
		t.Fatal("no safe spots registered means nowhere is safe")
	}
}
