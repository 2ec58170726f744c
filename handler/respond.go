package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"geoclash/models"
	"geoclash/service"
	"geoclash/storage"
)

// respondJSON sends the success envelope: {"success": true, ...payload}
func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, payload map[string]interface{}) {
	body := map[string]interface{}{"success": true}
	for k, v := range payload {
		body[k] = v
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// respondError sends the failure envelope: {"success": false, "error": "..."}
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := statusFor(err)
	logger.Warn("Request error",
		zap.Int("status", status),
		zap.Error(err),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	})
}

// respondBadRequest is the validation-failure shortcut for unparseable input
func respondBadRequest(w http.ResponseWriter, logger *zap.Logger, message string) {
	logger.Warn("Bad request", zap.String("message", message))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// statusFor maps domain errors onto HTTP statuses; the envelope shape
// stays the same either way
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, service.ErrInvitationNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrNotYourTurn),
		errors.Is(err, models.ErrNotParticipant),
		errors.Is(err, service.ErrPlayerBusy),
		errors.Is(err, service.ErrInvitationPending),
		errors.Is(err, service.ErrInvitationResolved),
		errors.Is(err, service.ErrInvitationExpired),
		errors.Is(err, service.ErrNotInvitationSender),
		errors.Is(err, service.ErrTargetNotNearby):
		return http.StatusConflict
	case errors.Is(err, models.ErrSelfBattle),
		errors.Is(err, models.ErrInvalidName),
		errors.Is(err, models.ErrInvalidTier),
		errors.Is(err, models.ErrTierNotHigher),
		errors.Is(err, models.ErrInvalidLatitude),
		errors.Is(err, models.ErrInvalidLongitude),
		errors.Is(err, service.ErrUnknownAttack):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
