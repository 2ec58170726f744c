package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"geoclash/models"
	"geoclash/storage"
)

func newLocationFixture(t *testing.T) (*LocationService, *storage.MemoryLocationStore) {
	t.Helper()
	store := storage.NewMemoryLocationStore()
	svc := NewLocationService(store, zap.NewNop(), models.DefaultBattleRangeKm, models.DefaultSafeRadiusKm)
	return svc, store
}

func TestUpdateLocation_Roundtrip(t *testing.T) {
	svc, _ := newLocationFixture(t)
	ctx := context.Background()

	inSafeSpot, err := svc.UpdateLocation(ctx, "alice", 40.7128, -74.0060, 5)
	if err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}
	if inSafeSpot {
		t.Fatal("no safe spots registered, position cannot be safe")
	}

	location, err := svc.GetLocation(ctx, "alice")
	if err != nil {
		t.Fatalf("GetLocation: %v", err)
	}
	if location.Coordinates.Latitude != 40.7128 || !location.IsActive {
		t.Fatalf("unexpected location: %+v", location)
	}
}

func TestUpdateLocation_InvalidCoordinates(t *testing.T) {
	svc, _ := newLocationFixture(t)
	if _, err := svc.UpdateLocation(context.Background(), "alice", 91, 0, 0); err != models.ErrInvalidLatitude {
		t.Fatalf("expected ErrInvalidLatitude, got %v", err)
	}
	if _, err := svc.UpdateLocation(context.Background(), "alice", 0, -181, 0); err != models.ErrInvalidLongitude {
		t.Fatalf("expected ErrInvalidLongitude, got %v", err)
	}
}

func TestUpdateLocation_ReportsSafeSpot(t *testing.T) {
	svc, _ := newLocationFixture(t)
	ctx := context.Background()
	if err := svc.AddSafeSpot(ctx, models.SafeSpot{ID: 1, Name: "Library", Latitude: 40.7128, Longitude: -74.0060}); err != nil {
		t.Fatalf("AddSafeSpot: %v", err)
	}

	inSafeSpot, err := svc.UpdateLocation(ctx, "alice", 40.7129, -74.0061, 5)
	if err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}
	if !inSafeSpot {
		t.Fatal("position ~15 m from a safe spot should report safe")
	}
}

// --- nearby queries ---

func TestFindNearbyUsers_WithinRange(t *testing.T) {
	svc, _ := newLocationFixture(t)
	ctx := context.Background()
	svc.UpdateLocation(ctx, "alice", 40.7128, -74.0060, 5)
	svc.UpdateLocation(ctx, "bob", 40.7129, -74.0061, 5) // ~15 m away

	nearby, err := svc.FindNearbyUsers(ctx, "alice", 0.1)
	if err != nil {
		t.Fatalf("FindNearbyUsers: %v", err)
	}
	if len(nearby) != 1 || nearby[0].UserID != "bob" {
		t.Fatalf("expected only bob, got %+v", nearby)
	}
}

func TestFindNearbyUsers_TightRadiusExcludes(t *testing.T) {
	svc, _ := newLocationFixture(t)
	ctx := context.Background()
	svc.UpdateLocation(ctx, "alice", 40.7128, -74.0060, 5)
	svc.UpdateLocation(ctx, "bob", 40.7173, -74.0060, 5) // ~500 m away

	nearby, err := svc.FindNearbyUsers(ctx, "alice", 0.01)
	if err != nil {
		t.Fatalf("FindNearbyUsers: %v", err)
	}
	if len(nearby) != 0 {
		t.Fatalf("10 m radius should exclude a user 500 m away, got %+v", nearby)
	}
}

func TestFindNearbyUsers_NoStoredLocation(t *testing.T) {
	svc, _ := newLocationFixture(t)
	nearby, err := svc.FindNearbyUsers(context.Background(), "ghost", 0.1)
	if err != nil {
		t.Fatalf("missing own location should not be an error, got %v", err)
	}
	if len(nearby) != 0 {
		t.Fatalf("expected empty result, got %+v", nearby)
	}
}

func TestFindNearbyUsers_RequesterInSafeSpot(t *testing.T) {
	svc, _ := newLocationFixture(t)
	ctx := context.Background()
	svc.AddSafeSpot(ctx, models.SafeSpot{ID: 1, Name: "Library", Latitude: 40.7128, Longitude: -74.0060})
	svc.UpdateLocation(ctx, "alice", 40.7128, -74.0060, 5)
	svc.UpdateLocation(ctx, "bob", 40.7129, -74.0061, 5)

	nearby, err := svc.FindNearbyUsers(ctx, "alice", 0.1)
	if err != nil {
		t.Fatalf("FindNearbyUsers: %v", err)
	}
	if len(nearby) != 0 {
		t.Fatalf("a requester inside a safe spot should see nobody, got %+v", nearby)
	}
}

func TestFindNearbyUsers_FiltersSafeCandidates(t *testing.T) {
	svc, _ := newLocationFixture(t)
	ctx := context.Background()
	// safe spot ~67 m north of alice: alice and bob are outside it,
	// carol stands dead center
	svc.AddSafeSpot(ctx, models.SafeSpot{ID: 1, Name: "Cafe", Latitude: 40.7134, Longitude: -74.0060})
	svc.UpdateLocation(ctx, "alice", 40.7128, -74.0060, 5)
	svc.UpdateLocation(ctx, "bob", 40.7129, -74.0061, 5)
	svc.UpdateLocation(ctx, "carol", 40.7134, -74.0060, 5)

	nearby, err := svc.FindNearbyUsers(ctx, "alice", 0.1)
	if err != nil {
		t.Fatalf("FindNearbyUsers: %v", err)
	}
	if len(nearby) != 1 || nearby[0].UserID != "bob" {
		t.Fatalf("sheltered candidates should be filtered, got %+v", nearby)
	}
}

// --- safe spots ---

func TestNearestSafeSpot(t *testing.T) {
	svc, _ := newLocationFixture(t)
	ctx := context.Background()

	spot, err := svc.NearestSafeSpot(ctx, models.Coordinates{Latitude: 40.7128, Longitude: -74.0060})
	if err != nil {
		t.Fatalf("NearestSafeSpot: %v", err)
	}
	if spot != nil {
		t.Fatal("no spots registered, expected nil")
	}

	svc.AddSafeSpot(ctx, models.SafeSpot{ID: 1, Name: "Far", Latitude: 40.80, Longitude: -74.0060})
	svc.AddSafeSpot(ctx, models.SafeSpot{ID: 2, Name: "Near", Latitude: 40.7130, Longitude: -74.0060})

	spot, err = svc.NearestSafeSpot(ctx, models.Coordinates{Latitude: 40.7128, Longitude: -74.0060})
	if err != nil {
		t.Fatalf("NearestSafeSpot: %v", err)
	}
	if spot == nil || spot.Name != "Near" {
		t.Fatalf("expected the near spot, got %+v", spot)
	}
}

// --- history and deactivation ---

func TestHistory_MostRecentFirst(t *testing.T) {
	svc, _ := newLocationFixture(t)
	ctx := context.Background()
	svc.UpdateLocation(ctx, "alice", 40.7128, -74.0060, 5)
	svc.UpdateLocation(ctx, "alice", 40.7129, -74.0060, 5)
	svc.UpdateLocation(ctx, "alice", 40.7130, -74.0060, 5)

	history, err := svc.History(ctx, "alice", 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if history[0].Latitude != 40.7130 || history[1].Latitude != 40.7129 {
		t.Fatalf("history should be most recent first, got %+v", history)
	}
}

func TestDeactivate(t *testing.T) {
	svc, _ := newLocationFixture(t)
	ctx := context.Background()
	svc.UpdateLocation(ctx, "alice", 40.7128, -74.0060, 5)
	svc.UpdateLocation(ctx, "bob", 40.7129, -74.0061, 5)

	if err := svc.Deactivate(ctx, "alice"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if _, err := svc.GetLocation(ctx, "alice"); err != storage.ErrNotFound {
		t.Fatalf("deactivated user should have no location, got %v", err)
	}

	nearby, err := svc.FindNearbyUsers(ctx, "bob", 0.1)
	if err != nil {
		t.Fatalf("FindNearbyUsers: %v", err)
	}
	if len(nearby) != 0 {
		t.Fatalf("deactivated user should not appear nearby, got %+v", nearby)
	}

	// deactivating an unknown user is a no-op
	if err := svc.Deactivate(ctx, "ghost"); err != nil {
		t.Fatalf("Deactivate(ghost): %v", err)
	}
}
