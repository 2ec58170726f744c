package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"geoclash/service"
)

// RankingHandler exposes the ranking ledger over HTTP
type RankingHandler struct {
	ranking *service.RankingService
	logger  *zap.Logger
}

// NewRankingHandler creates a ranking handler
func NewRankingHandler(ranking *service.RankingService, logger *zap.Logger) *RankingHandler {
	return &RankingHandler{ranking: ranking, logger: logger}
}

// Register mounts the ranking routes on the router
func (h *RankingHandler) Register(r *mux.Router) {
	r.HandleFunc("/ranking/leaderboard", h.Leaderboard).Methods("GET")
	r.HandleFunc("/ranking/user/{user_id}", h.UserRanking).Methods("GET")
	r.HandleFunc("/ranking/recompute", h.Recompute).Methods("POST")
}

// Leaderboard returns the top players by points
func (h *RankingHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondBadRequest(w, h.logger, "limit must be an integer")
			return
		}
		limit = parsed
	}

	leaderboard, err := h.ranking.Leaderboard(r.Context(), limit)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"leaderboard": leaderboard})
}

// UserRanking returns one user's profile and rank
func (h *RankingHandler) UserRanking(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	user, err := h.ranking.UserRanking(r.Context(), userID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"user": user})
}

// Recompute re-ranks every user by points
func (h *RankingHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	if err := h.ranking.Recompute(r.Context()); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"recomputed": true})
}
