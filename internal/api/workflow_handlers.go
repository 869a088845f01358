/**
 * @description
 * Handler for the reminder delivery callback. The external workflow runner
 * posts the reminder payload back to this endpoint when the scheduled instant
 * arrives; the service re-validates the reminder against current state before
 * recording the delivery.
 */
package api

import (
	"encoding/json"
	"net/http"

	"github.com/samuelldmj/subscription-management-api/internal/domain"
)

// handleReminderTask handles the delivery callback for a due reminder.
func (h *Handler) handleReminderTask(w http.ResponseWriter, r *http.Request) {
	var payload domain.ReminderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	delivered, err := h.service.DeliverReminder(r.Context(), payload)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	if !delivered {
		respondWithJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"delivered": false, "reason": "reminder no longer applies"},
		})
		return
	}

	h.logger.Info("reminder delivered",
		"subscription_id", payload.SubscriptionID, "reminder_label", payload.ReminderLabel)
	respondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]any{"delivered": true},
	})
}
