/**
 * @description
 * This file contains the HTTP handler for processing incoming webhooks from Stripe.
 * It acts as the entry point for all real-time notifications from the payment
 * processor.
 *
 * Key features:
 * - Security: Validates the HMAC signature of incoming webhooks against the
 *   raw request bytes, before any JSON parsing.
 * - Parsing: Decodes the JSON payload into strongly-typed Go structs.
 * - Routing: Hands the verified event to the service layer, which dispatches
 *   on the event type.
 * - Acknowledgment: Every verified event is acknowledged with 200, including
 *   types this service does not recognize; Stripe retries anything else.
 */
package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/theinsider/membership-service/internal/domain"
	"github.com/theinsider/membership-service/pkg/stripeclient"
)

// handleStripeWebhook verifies and dispatches a Stripe event delivery.
func (h *Handler) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	// Without a webhook secret there is nothing to verify against; an empty
	// secret must never reach the HMAC check, or anyone could sign with it.
	if h.webhookSecret == "" {
		respondWithError(w, http.StatusServiceUnavailable, "Stripe is not configured")
		return
	}

	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}

	// The body must be captured raw: the signature covers the exact bytes
	// Stripe sent, not a re-serialization of them.
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("failed to read webhook body", "request_id", requestID, "error", err)
		respondWithError(w, http.StatusBadRequest, "Cannot read request body")
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		respondWithError(w, http.StatusBadRequest, "Missing stripe-signature header")
		return
	}

	if err := stripeclient.VerifySignature(body, signature, h.webhookSecret); err != nil {
		h.logger.Error("webhook signature verification failed", "request_id", requestID, "error", err)
		respondWithError(w, http.StatusBadRequest, "Webhook signature verification failed")
		return
	}

	var event domain.StripeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Error("failed to decode webhook payload", "request_id", requestID, "error", err)
		respondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	h.logger.Info("received webhook event", "request_id", requestID, "event_id", event.ID, "type", event.Type)
	h.service.ProcessWebhookEvent(r.Context(), event)

	respondWithJSON(w, http.StatusOK, map[string]bool{"received": true})
}
