package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"geoclash/service"
)

// BattleHandler exposes the battle engine over HTTP
type BattleHandler struct {
	battles *service.BattleService
	logger  *zap.Logger
}

// NewBattleHandler creates a battle handler
func NewBattleHandler(battles *service.BattleService, logger *zap.Logger) *BattleHandler {
	return &BattleHandler{battles: battles, logger: logger}
}

// Register mounts the battle routes on the router
func (h *BattleHandler) Register(r *mux.Router) {
	r.HandleFunc("/battles", h.Create).Methods("POST")
	r.HandleFunc("/battles/active", h.Active).Methods("GET")
	r.HandleFunc("/battles/player/{user_id}", h.ByPlayer).Methods("GET")
	r.HandleFunc("/battles/statistics/{user_id}", h.Statistics).Methods("GET")
	r.HandleFunc("/battles/{battle_id}", h.Get).Methods("GET")
	r.HandleFunc("/battles/{battle_id}/start", h.Start).Methods("POST")
	r.HandleFunc("/battles/{battle_id}/attack-options", h.AttackOptions).Methods("GET")
	r.HandleFunc("/battles/{battle_id}/attack", h.Attack).Methods("POST")
	r.HandleFunc("/battles/{battle_id}/cancel", h.Cancel).Methods("POST")
}

type createBattleRequest struct {
	Player1ID    string `json:"player1_id"`
	Player2ID    string `json:"player2_id"`
	Character1ID string `json:"character1_id"`
	Character2ID string `json:"character2_id"`
}

// Create creates a pending battle
func (h *BattleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBattleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body")
		return
	}
	if req.Player1ID == "" || req.Player2ID == "" || req.Character1ID == "" || req.Character2ID == "" {
		respondBadRequest(w, h.logger, "All player and character ids are required")
		return
	}

	battle, err := h.battles.CreateBattle(r.Context(), req.Player1ID, req.Player2ID, req.Character1ID, req.Character2ID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, map[string]interface{}{"battle": battle})
}

// Start activates a pending battle
func (h *BattleHandler) Start(w http.ResponseWriter, r *http.Request) {
	battleID := mux.Vars(r)["battle_id"]

	battle, err := h.battles.StartBattle(r.Context(), battleID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"battle": battle})
}

// Get returns one battle
func (h *BattleHandler) Get(w http.ResponseWriter, r *http.Request) {
	battleID := mux.Vars(r)["battle_id"]

	battle, err := h.battles.GetBattle(r.Context(), battleID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"battle": battle})
}

// AttackOptions returns attack choices for the player whose turn it is
func (h *BattleHandler) AttackOptions(w http.ResponseWriter, r *http.Request) {
	battleID := mux.Vars(r)["battle_id"]
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondBadRequest(w, h.logger, "user_id is required")
		return
	}

	options, err := h.battles.AttackOptions(r.Context(), battleID, userID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"attack_options": options})
}

type attackRequest struct {
	UserID   string `json:"user_id"`
	AttackID string `json:"attack_id"` // empty picks a random attack
}

// Attack submits one attack for the current turn
func (h *BattleHandler) Attack(w http.ResponseWriter, r *http.Request) {
	battleID := mux.Vars(r)["battle_id"]

	var req attackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body")
		return
	}
	if req.UserID == "" {
		respondBadRequest(w, h.logger, "user_id is required")
		return
	}

	battle, result, err := h.battles.PerformAttack(r.Context(), battleID, req.UserID, req.AttackID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"battle":        battle,
		"attack_result": result,
	})
}

type cancelBattleRequest struct {
	UserID string `json:"user_id"`
}

// Cancel aborts a battle
func (h *BattleHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	battleID := mux.Vars(r)["battle_id"]

	var req cancelBattleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body")
		return
	}
	if req.UserID == "" {
		respondBadRequest(w, h.logger, "user_id is required")
		return
	}

	battle, err := h.battles.CancelBattle(r.Context(), battleID, req.UserID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"battle": battle})
}

// ByPlayer lists a player's battles
func (h *BattleHandler) ByPlayer(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	battles, err := h.battles.PlayerBattles(r.Context(), userID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"battles": battles})
}

// Active lists all active battles
func (h *BattleHandler) Active(w http.ResponseWriter, r *http.Request) {
	battles, err := h.battles.ActiveBattles(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"battles": battles})
}

// Statistics returns a player's aggregate battle record
func (h *BattleHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	stats, err := h.battles.Statistics(r.Context(), userID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"statistics": stats})
}
