/**
 * @description
 * This file contains the HTTP handler functions for the subscription API.
 * Handlers are responsible for parsing incoming requests, calling the
 * appropriate business logic in the service layer, and writing the HTTP
 * response.
 */
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/samuelldmj/subscription-management-api/internal/app"
	"github.com/samuelldmj/subscription-management-api/internal/domain"
	"github.com/samuelldmj/subscription-management-api/internal/schedule"
)

// Handler holds the application service that handlers will interact with.
type Handler struct {
	service app.Service
	logger  *slog.Logger
}

// NewHandler creates a new Handler with the given service.
func NewHandler(service app.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type createSubscriptionRequest struct {
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
	Frequency     string  `json:"frequency"`
	Category      string  `json:"category"`
	PaymentMethod string  `json:"payment_method"`
	StartDate     string  `json:"start_date"`
	AutoRenew     *bool   `json:"auto_renew"`
	Timezone      string  `json:"timezone"`
}

// subscriptionView is the API representation of a subscription. The calendar
// dates are formatted as YYYY-MM-DD in the subscription's own timezone so
// clients see the day the owner would.
type subscriptionView struct {
	domain.Subscription
	StartDate   string `json:"start_date"`
	RenewalDate string `json:"renewal_date"`
}

func newSubscriptionView(sub *domain.Subscription) subscriptionView {
	loc, err := schedule.Location(sub.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return subscriptionView{
		Subscription: *sub,
		StartDate:    sub.StartDate.In(loc).Format("2006-01-02"),
		RenewalDate:  sub.RenewalDate.In(loc).Format("2006-01-02"),
	}
}

// handleCreateSubscription handles the request to create a new subscription.
func (h *Handler) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req createSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sub, planned, err := h.service.Create(r.Context(), app.CreateSubscriptionInput{
		Name:          req.Name,
		Price:         req.Price,
		Currency:      domain.Currency(req.Currency),
		Frequency:     domain.Frequency(req.Frequency),
		Category:      domain.Category(req.Category),
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		StartDate:     req.StartDate,
		AutoRenew:     req.AutoRenew,
		Timezone:      req.Timezone,
		OwnerID:       user.ID,
		OwnerEmail:    user.Email,
		OwnerName:     user.Name,
	})
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data": map[string]any{
			"subscription":       newSubscriptionView(sub),
			"scheduledReminders": planned,
		},
	})
}

// handleGetSubscription handles the request to fetch a single subscription.
func (h *Handler) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	subscriptionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid subscription ID")
		return
	}

	sub, err := h.service.Get(r.Context(), user.ID, subscriptionID)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]any{"subscription": newSubscriptionView(sub)},
	})
}

// handleListSubscriptions handles the request to list a user's subscriptions.
func (h *Handler) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ownerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	subs, err := h.service.List(r.Context(), user.ID, ownerID)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	views := make([]subscriptionView, 0, len(subs))
	for i := range subs {
		views = append(views, newSubscriptionView(&subs[i]))
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]any{"subscriptions": views},
	})
}

// handleRenewSubscription handles the request to renew a subscription. The
// body is optional; it may carry an auto_renew toggle to apply atomically
// with the renewal.
func (h *Handler) handleRenewSubscription(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	subscriptionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid subscription ID")
		return
	}

	var req struct {
		AutoRenew *bool `json:"auto_renew"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sub, planned, err := h.service.Renew(r.Context(), user.ID, subscriptionID, req.AutoRenew)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"subscription":       newSubscriptionView(sub),
			"scheduledReminders": planned,
		},
	})
}

// handleCancelSubscription handles the request to cancel a subscription.
func (h *Handler) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	subscriptionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid subscription ID")
		return
	}

	sub, err := h.service.Cancel(r.Context(), user.ID, subscriptionID)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]any{"subscription": newSubscriptionView(sub)},
	})
}

// respondWithServiceError maps service-layer errors onto HTTP status codes.
func (h *Handler) respondWithServiceError(w http.ResponseWriter, err error) {
	code := statusForError(err)
	if code == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
		respondWithError(w, code, "Internal Server Error")
		return
	}
	respondWithError(w, code, err.Error())
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, app.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidFrequency),
		errors.Is(err, domain.ErrStartDateInPast),
		errors.Is(err, domain.ErrInvalidStartDateFormat),
		errors.Is(err, domain.ErrMalformedReminderPayload):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrSubscriptionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrPersistenceConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondWithError writes a JSON error envelope.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]any{
		"success": false,
		"error":   map[string]any{"message": message},
	})
}

// respondWithJSON is a helper function to write JSON responses.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
