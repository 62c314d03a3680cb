/**
 * @description
 * This file contains the HTTP handler functions for the membership-service.
 * Handlers are responsible for parsing incoming requests, calling the
 * appropriate business logic in the service layer, and writing the HTTP
 * response. Stripe error detail is logged server-side and replaced with a
 * generic message before it reaches the caller.
 */
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/theinsider/membership-service/internal/app"
	"github.com/theinsider/membership-service/internal/content"
	"github.com/theinsider/membership-service/internal/domain"
	"github.com/theinsider/membership-service/internal/session"
)

// Handler holds the application service and the collaborators handlers need.
type Handler struct {
	logger        *slog.Logger
	service       app.Service
	sessions      *session.Store
	source        content.Source
	proxy         content.Querier
	demo          *content.DemoSource
	webhookSecret string
}

// NewHandler creates a new Handler. source and proxy are nil when the CMS is
// unconfigured; demo is non-nil in demo mode and answers GraphQL queries
// from the sample set.
func NewHandler(logger *slog.Logger, service app.Service, sessions *session.Store, source content.Source, proxy content.Querier, demo *content.DemoSource, webhookSecret string) *Handler {
	return &Handler{
		logger:        logger,
		service:       service,
		sessions:      sessions,
		source:        source,
		proxy:         proxy,
		demo:          demo,
		webhookSecret: webhookSecret,
	}
}

// handleGetSubscription reports the subscription state claimed by the
// cookie. No remote check is performed here.
func (h *Handler) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Read(r)
	if sess == nil {
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"subscribed": false})
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"subscribed": sess.Status == domain.StatusActive,
		"email":      sess.Email,
		"expiresAt":  sess.ExpiresAt,
	})
}

// handleVerifySubscription verifies a completed checkout with Stripe and
// writes the subscriber session cookie.
func (h *Handler) handleVerifySubscription(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		respondWithError(w, http.StatusBadRequest, "Session ID required")
		return
	}

	sess, err := h.service.VerifyCheckout(r.Context(), req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrNotConfigured):
			respondWithError(w, http.StatusServiceUnavailable, "Stripe is not configured")
		case errors.Is(err, app.ErrPaymentNotCompleted):
			respondWithError(w, http.StatusBadRequest, "Payment not completed")
		default:
			h.logger.Error("subscription verification failed", "session_id", req.SessionID, "error", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to verify subscription")
		}
		return
	}

	if err := h.sessions.Write(w, *sess); err != nil {
		h.logger.Error("failed to write session cookie", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to verify subscription")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"subscribed": true,
		"email":      sess.Email,
	})
}

// handleLogout clears the subscriber session cookie.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// handleCheckout creates a Stripe-hosted checkout session. The body is
// optional; all fields default.
func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email      string `json:"email"`
		SuccessURL string `json:"successUrl"`
		CancelURL  string `json:"cancelUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sessionID, url, err := h.service.CreateCheckout(r.Context(), req.Email, req.SuccessURL, req.CancelURL)
	if err != nil {
		if errors.Is(err, app.ErrNotConfigured) {
			respondWithError(w, http.StatusServiceUnavailable, "Stripe is not configured. Please add your API keys.")
			return
		}
		h.logger.Error("checkout session creation failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to create checkout session")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId": sessionID,
		"url":       url,
	})
}

// handlePortal creates a Stripe billing-portal session for the current
// subscriber.
func (h *Handler) handlePortal(w http.ResponseWriter, r *http.Request) {
	url, err := h.service.CreatePortal(r.Context(), h.sessions.Read(r))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrNotConfigured):
			respondWithError(w, http.StatusServiceUnavailable, "Stripe is not configured")
		case errors.Is(err, app.ErrNoSession):
			respondWithError(w, http.StatusUnauthorized, "No active subscription found")
		default:
			h.logger.Error("portal session creation failed", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to create portal session")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"url": url})
}

// handleListPosts lists articles with their public fields only; bodies are
// never included in listings. ?featured=true serves the short home-page
// listing instead of the full one.
func (h *Handler) handleListPosts(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Drupal connection not configured")
		return
	}

	list := h.source.AllPosts
	if r.URL.Query().Get("featured") == "true" {
		list = h.source.FeaturedPosts
	}

	articles, err := list(r.Context())
	if err != nil {
		h.logger.Error("failed to list posts", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch posts")
		return
	}

	for i := range articles {
		articles[i].Body = ""
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"posts": articles})
}

// handleGetPost resolves a single article. The body is withheld unless the
// requester has an active subscription.
func (h *Handler) handleGetPost(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Drupal connection not configured")
		return
	}

	slug := chi.URLParam(r, "slug")
	article, err := h.source.PostBySlug(r.Context(), slug)
	if err != nil {
		h.logger.Error("failed to fetch post", "slug", slug, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch post")
		return
	}
	if article == nil {
		respondWithError(w, http.StatusNotFound, "Post not found")
		return
	}

	paywalled := !h.service.HasActiveSubscription(r.Context(), h.sessions.Read(r))
	if paywalled {
		article.Body = ""
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"post":      article,
		"paywalled": paywalled,
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

// respondWithError writes a JSON error body of the form {"error": message}.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
