package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"geoclash/models"
	"geoclash/service"
)

// LocationHandler exposes the proximity index over HTTP
type LocationHandler struct {
	locations *service.LocationService
	logger    *zap.Logger
}

// NewLocationHandler creates a location handler
func NewLocationHandler(locations *service.LocationService, logger *zap.Logger) *LocationHandler {
	return &LocationHandler{locations: locations, logger: logger}
}

// Register mounts the location routes on the router
func (h *LocationHandler) Register(r *mux.Router) {
	r.HandleFunc("/location", h.Update).Methods("POST")
	r.HandleFunc("/location/nearby", h.Nearby).Methods("GET")
	r.HandleFunc("/location/safespots", h.SafeSpots).Methods("GET")
	r.HandleFunc("/location/safespots", h.AddSafeSpot).Methods("POST")
	r.HandleFunc("/location/safespots/nearest", h.NearestSafeSpot).Methods("GET")
	r.HandleFunc("/location/history/{user_id}", h.History).Methods("GET")
	r.HandleFunc("/location/{user_id}", h.Deactivate).Methods("DELETE")
}

type updateLocationRequest struct {
	UserID    string  `json:"user_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
}

// Update records a user's position report
func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body")
		return
	}
	if req.UserID == "" {
		respondBadRequest(w, h.logger, "user_id is required")
		return
	}

	inSafeSpot, err := h.locations.UpdateLocation(r.Context(), req.UserID, req.Latitude, req.Longitude, req.Accuracy)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"in_safe_spot": inSafeSpot})
}

// Nearby lists battle-eligible users around the requester
func (h *LocationHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondBadRequest(w, h.logger, "user_id is required")
		return
	}

	radiusKm := 0.0
	if raw := r.URL.Query().Get("radius_km"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondBadRequest(w, h.logger, "radius_km must be a number")
			return
		}
		radiusKm = parsed
	}

	nearby, err := h.locations.FindNearbyUsers(r.Context(), userID, radiusKm)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"nearby_users": nearby})
}

// SafeSpots lists registered no-battle zones
func (h *LocationHandler) SafeSpots(w http.ResponseWriter, r *http.Request) {
	spots, err := h.locations.SafeSpots(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"safe_spots": spots})
}

// NearestSafeSpot returns the closest registered safe spot to a point
func (h *LocationHandler) NearestSafeSpot(w http.ResponseWriter, r *http.Request) {
	latitude, err := strconv.ParseFloat(r.URL.Query().Get("latitude"), 64)
	if err != nil {
		respondBadRequest(w, h.logger, "latitude must be a number")
		return
	}
	longitude, err := strconv.ParseFloat(r.URL.Query().Get("longitude"), 64)
	if err != nil {
		respondBadRequest(w, h.logger, "longitude must be a number")
		return
	}
	coords, err := models.NewCoordinates(latitude, longitude, 0)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	spot, err := h.locations.NearestSafeSpot(r.Context(), coords)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if spot == nil {
		respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"safe_spot": nil})
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"safe_spot":   spot,
		"distance_km": models.HaversineKm(coords.Latitude, coords.Longitude, spot.Latitude, spot.Longitude),
	})
}

type addSafeSpotRequest struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// AddSafeSpot registers a new no-battle zone
func (h *LocationHandler) AddSafeSpot(w http.ResponseWriter, r *http.Request) {
	var req addSafeSpotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body")
		return
	}
	if req.Name == "" {
		respondBadRequest(w, h.logger, "name is required")
		return
	}
	if _, err := models.NewCoordinates(req.Latitude, req.Longitude, 0); err != nil {
		respondError(w, h.logger, err)
		return
	}

	spot := models.SafeSpot{
		Name:      req.Name,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		CreatedAt: time.Now(),
	}
	if err := h.locations.AddSafeSpot(r.Context(), spot); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, map[string]interface{}{"safe_spot": spot})
}

// History returns a user's recent positions, most recent first
func (h *LocationHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondBadRequest(w, h.logger, "limit must be an integer")
			return
		}
		limit = parsed
	}

	history, err := h.locations.History(r.Context(), userID, limit)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"history": history})
}

// Deactivate removes a user from the proximity index
func (h *LocationHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	if err := h.locations.Deactivate(r.Context(), userID); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"user_id": userID})
}
