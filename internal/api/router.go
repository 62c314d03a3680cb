/**
 * @description
 * This file sets up the HTTP router for the membership-service using the go-chi/chi router.
 * It defines the API routes, applies middleware for logging, CORS, and request
 * timeouts, and maps the routes to their corresponding handler functions.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new Chi router and registers the membership-service routes.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Setup middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// Subscriber session lifecycle
	r.Route("/subscription", func(r chi.Router) {
		r.Get("/", h.handleGetSubscription)
		r.Post("/", h.handleVerifySubscription)
		r.Delete("/", h.handleLogout)
	})

	// Stripe-hosted flows
	r.Post("/checkout", h.handleCheckout)
	r.Post("/portal", h.handlePortal)
	r.Post("/webhooks/stripe", h.handleStripeWebhook)

	// Content
	r.Post("/graphql", h.handleGraphQLProxy)
	r.Get("/posts", h.handleListPosts)
	r.Get("/posts/{slug}", h.handleGetPost)

	return r
}
