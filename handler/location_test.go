package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"geoclash/models"
	"geoclash/service"
	"geoclash/storage"
)

func newLocationServer(t *testing.T) *mux.Router {
	t.Helper()
	logger := zap.NewNop()
	locations := service.NewLocationService(storage.NewMemoryLocationStore(), logger,
		models.DefaultBattleRangeKm, models.DefaultSafeRadiusKm)

	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()
	NewLocationHandler(locations, logger).Register(api)
	return router
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	decoded := make(map[string]json.RawMessage)
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("%s %s: invalid JSON response: %v", method, path, err)
	}
	return rec, decoded
}

func TestLocationAPI_UpdateAndNearby(t *testing.T) {
	router := newLocationServer(t)

	rec, body := doJSON(t, router, "POST", "/api/v1/location", map[string]interface{}{
		"user_id": "alice", "latitude": 40.7128, "longitude": -74.0060, "accuracy": 5,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d, body %s", rec.Code, rec.Body.String())
	}
	var inSafeSpot bool
	if err := json.Unmarshal(body["in_safe_spot"], &inSafeSpot); err != nil {
		t.Fatalf("decode in_safe_spot: %v", err)
	}
	if inSafeSpot {
		t.Fatal("no safe spots registered, position cannot be safe")
	}

	doJSON(t, router, "POST", "/api/v1/location", map[string]interface{}{
		"user_id": "bob", "latitude": 40.7129, "longitude": -74.0061, "accuracy": 5,
	})

	rec, body = doJSON(t, router, "GET", "/api/v1/location/nearby?user_id=alice&radius_km=0.1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("nearby: status %d, body %s", rec.Code, rec.Body.String())
	}
	var nearby []models.UserLocation
	if err := json.Unmarshal(body["nearby_users"], &nearby); err != nil {
		t.Fatalf("decode nearby_users: %v", err)
	}
	if len(nearby) != 1 || nearby[0].UserID != "bob" {
		t.Fatalf("expected only bob nearby, got %+v", nearby)
	}
}

func TestLocationAPI_InvalidCoordinates(t *testing.T) {
	router := newLocationServer(t)
	rec, _ := doJSON(t, router, "POST", "/api/v1/location", map[string]interface{}{
		"user_id": "alice", "latitude": 91.0, "longitude": 0.0,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLocationAPI_NearestSafeSpot(t *testing.T) {
	router := newLocationServer(t)

	// no spots registered yet
	rec, body := doJSON(t, router, "GET", "/api/v1/location/safespots/nearest?latitude=40.7128&longitude=-74.0060", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("nearest: status %d, body %s", rec.Code, rec.Body.String())
	}
	if string(body["safe_spot"]) != "null" {
		t.Fatalf("expected null safe_spot, got %s", body["safe_spot"])
	}

	for _, spot := range []map[string]interface{}{
		{"name": "Far Park", "latitude": 40.80, "longitude": -74.0060},
		{"name": "Near Cafe", "latitude": 40.7130, "longitude": -74.0060},
	} {
		rec, _ := doJSON(t, router, "POST", "/api/v1/location/safespots", spot)
		if rec.Code != http.StatusCreated {
			t.Fatalf("add safe spot: status %d", rec.Code)
		}
	}

	rec, body = doJSON(t, router, "GET", "/api/v1/location/safespots/nearest?latitude=40.7128&longitude=-74.0060", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("nearest: status %d, body %s", rec.Code, rec.Body.String())
	}
	var nearest models.SafeSpot
	if err := json.Unmarshal(body["safe_spot"], &nearest); err != nil {
		t.Fatalf("decode safe_spot: %v", err)
	}
	if nearest.Name != "Near Cafe" {
		t.Fatalf("expected the near spot, got %+v", nearest)
	}
	var distanceKm float64
	if err := json.Unmarshal(body["distance_km"], &distanceKm); err != nil {
		t.Fatalf("decode distance_km: %v", err)
	}
	if distanceKm <= 0 || distanceKm > 0.1 {
		t.Fatalf("distance to the near spot should be ~22 m, got %g km", distanceKm)
	}
}

func TestLocationAPI_NearestSafeSpot_BadQuery(t *testing.T) {
	router := newLocationServer(t)
	rec, _ := doJSON(t, router, "GET", "/api/v1/location/safespots/nearest?latitude=abc&longitude=0", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	rec, _ = doJSON(t, router, "GET", "/api/v1/location/safespots/nearest?latitude=95&longitude=0", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
