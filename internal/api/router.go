/**
 * @description
 * This file sets up the HTTP router for the subscription API using the
 * go-chi/chi router. It defines the API routes, applies middleware for
 * logging, CORS, and authentication, and maps the routes to their
 * corresponding handler functions.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new Chi router and registers the API routes.
func NewRouter(h *Handler, jwtSecret string) *chi.Mux {
	r := chi.NewRouter()

	// Setup middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Subscription management API is healthy"))
	})

	// Delivery callback for the external workflow runner. Authenticated by
	// payload validation rather than a user token.
	r.Post("/api/v1/workflows/subscription/reminder-task", h.handleReminderTask)

	// Protected routes that require authentication
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwtSecret))

		r.Post("/api/v1/subscriptions", h.handleCreateSubscription)
		r.Get("/api/v1/subscriptions/{id}", h.handleGetSubscription)
		r.Post("/api/v1/subscriptions/{id}/renew", h.handleRenewSubscription)
		r.Post("/api/v1/subscriptions/{id}/cancel", h.handleCancelSubscription)
		r.Get("/api/v1/users/{id}/subscriptions", h.handleListSubscriptions)
	})

	return r
}
