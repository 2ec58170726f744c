package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"geoclash/models"
	"geoclash/service"
)

// CharacterHandler exposes character CRUD over HTTP
type CharacterHandler struct {
	characters *service.CharacterService
	logger     *zap.Logger
}

// NewCharacterHandler creates a character handler
func NewCharacterHandler(characters *service.CharacterService, logger *zap.Logger) *CharacterHandler {
	return &CharacterHandler{characters: characters, logger: logger}
}

// Register mounts the character routes on the router
func (h *CharacterHandler) Register(r *mux.Router) {
	r.HandleFunc("/characters", h.Create).Methods("POST")
	r.HandleFunc("/characters/user/{user_id}", h.ByUser).Methods("GET")
	r.HandleFunc("/characters/{character_id}", h.Get).Methods("GET")
	r.HandleFunc("/characters/{character_id}", h.Delete).Methods("DELETE")
	r.HandleFunc("/characters/{character_id}/stats", h.UpdateStats).Methods("PATCH")
	r.HandleFunc("/characters/{character_id}/tier", h.UpgradeTier).Methods("POST")
}

type createCharacterRequest struct {
	UserID string                `json:"user_id"`
	Tier   int                   `json:"tier"`
	Name   string                `json:"name"`
	Stats  models.CharacterStats `json:"stats"`
}

// Create validates and stores a new character
func (h *CharacterHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCharacterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body")
		return
	}
	if req.UserID == "" {
		respondBadRequest(w, h.logger, "user_id is required")
		return
	}

	character, err := h.characters.Create(r.Context(), req.UserID, req.Tier, req.Name, req.Stats)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, map[string]interface{}{"character": character})
}

// Get returns one character
func (h *CharacterHandler) Get(w http.ResponseWriter, r *http.Request) {
	characterID := mux.Vars(r)["character_id"]

	character, err := h.characters.Get(r.Context(), characterID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"character": character})
}

// ByUser lists a user's characters
func (h *CharacterHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	characters, err := h.characters.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"characters": characters})
}

// UpdateStats applies a partial stat update
func (h *CharacterHandler) UpdateStats(w http.ResponseWriter, r *http.Request) {
	characterID := mux.Vars(r)["character_id"]

	var update models.StatUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body")
		return
	}

	character, err := h.characters.UpdateStats(r.Context(), characterID, update)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"character": character})
}

type upgradeTierRequest struct {
	Tier int `json:"tier"`
}

// UpgradeTier raises a character's tier
func (h *CharacterHandler) UpgradeTier(w http.ResponseWriter, r *http.Request) {
	characterID := mux.Vars(r)["character_id"]

	var req upgradeTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body")
		return
	}

	character, err := h.characters.UpgradeTier(r.Context(), characterID, req.Tier)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"character": character})
}

// Delete removes a character
func (h *CharacterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	characterID := mux.Vars(r)["character_id"]

	if err := h.characters.Delete(r.Context(), characterID); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"character_id": characterID})
}
