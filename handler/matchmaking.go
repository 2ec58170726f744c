package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"geoclash/service"
)

// MatchmakingHandler exposes invitation flows over HTTP
type MatchmakingHandler struct {
	matchmaking *service.MatchmakingService
	logger      *zap.Logger
}

// NewMatchmakingHandler creates a matchmaking handler
func NewMatchmakingHandler(matchmaking *service.MatchmakingService, logger *zap.Logger) *MatchmakingHandler {
	return &MatchmakingHandler{matchmaking: matchmaking, logger: logger}
}

// Register mounts the matchmaking routes on the router
func (h *MatchmakingHandler) Register(r *mux.Router) {
	r.HandleFunc("/matchmaking/nearby", h.NearbyOpponents).Methods("GET")
	r.HandleFunc("/matchmaking/invitations", h.SendInvitation).Methods("POST")
	r.HandleFunc("/matchmaking/invitations", h.ListInvitations).Methods("GET")
	r.HandleFunc("/matchmaking/invitations/{invitation_id}/respond", h.Respond).Methods("POST")
	r.HandleFunc("/matchmaking/invitations/{invitation_id}/cancel", h.Cancel).Methods("POST")
}

// NearbyOpponents lists battle-eligible users around the requester
func (h *MatchmakingHandler) NearbyOpponents(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	characterID := r.URL.Query().Get("character_id")
	if userID == "" || characterID == "" {
		respondBadRequest(w, h.logger, "user_id and character_id are required")
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

	nearby, err := h.matchmaking.FindNearbyOpponents(r.Context(), userID, characterID, radiusKm)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"nearby_users": nearby})
}

type sendInvitationRequest struct {
	FromUserID      string `json:"from_user_id"`
	ToUserID        string `json:"to_user_id"`
	FromCharacterID string `json:"from_character_id"`
	ToCharacterID   string `json:"to_character_id"`
}

// SendInvitation creates a pending invitation for a nearby target
func (h *MatchmakingHandler) SendInvitation(w http.ResponseWriter, r *http.Request) {
	var req sendInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body")
		return
	}
	if req.FromUserID == "" || req.ToUserID == "" || req.FromCharacterID == "" || req.ToCharacterID == "" {
		respondBadRequest(w, h.logger, "All user and character ids are required")
		return
	}

	invitation, err := h.matchmaking.SendInvitation(r.Context(), req.FromUserID, req.ToUserID, req.FromCharacterID, req.ToCharacterID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, map[string]interface{}{"invitation": invitation})
}

type respondInvitationRequest struct {
	Accepted bool `json:"accepted"`
}

// Respond accepts or declines an invitation; an accept returns the
// started battle
func (h *MatchmakingHandler) Respond(w http.ResponseWriter, r *http.Request) {
	invitationID := mux.Vars(r)["invitation_id"]

	var req respondInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body")
		return
	}

	invitation, battle, err := h.matchmaking.RespondToInvitation(r.Context(), invitationID, req.Accepted)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	payload := map[string]interface{}{"invitation": invitation}
	if battle != nil {
		payload["battle"] = battle
	}
	respondJSON(w, h.logger, http.StatusOK, payload)
}

type cancelInvitationRequest struct {
	UserID string `json:"user_id"`
}

// Cancel withdraws a pending invitation; sender only
func (h *MatchmakingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	invitationID := mux.Vars(r)["invitation_id"]

	var req cancelInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body")
		return
	}
	if req.UserID == "" {
		respondBadRequest(w, h.logger, "user_id is required")
		return
	}

	invitation, err := h.matchmaking.CancelInvitation(r.Context(), invitationID, req.UserID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"invitation": invitation})
}

// ListInvitations returns a user's pending invitations
func (h *MatchmakingHandler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondBadRequest(w, h.logger, "user_id is required")
		return
	}

	invitations, err := h.matchmaking.ListInvitations(r.Context(), userID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"invitations": invitations})
}
