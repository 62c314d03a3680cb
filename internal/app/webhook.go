/**
 * @description
 * This file dispatches verified Stripe webhook events. Every recognized
 * event is logged; subscription transitions are additionally persisted when
 * a database is configured and published to the message broker when one is
 * configured. Both side effects are fire-and-forget: a failed write or
 * publish is logged but never turns into a non-2xx acknowledgment, because
 * Stripe retries unacknowledged deliveries indefinitely.
 *
 * Unrecognized event types are logged and acknowledged.
 */
package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/theinsider/membership-service/internal/domain"
)

// ProcessWebhookEvent dispatches a signature-verified Stripe event.
func (s Service) ProcessWebhookEvent(ctx context.Context, event domain.StripeEvent) {
	switch event.Type {
	case "checkout.session.completed":
		var obj domain.CheckoutSessionObject
		if err := json.Unmarshal(event.Data.Object, &obj); err != nil {
			s.logger.Error("failed to decode checkout session object", "event_id", event.ID, "error", err)
			return
		}
		s.logger.Info("checkout completed",
			"customer_id", string(obj.Customer),
			"email", obj.CustomerEmail,
			"subscription_id", string(obj.Subscription))

	case "customer.subscription.created", "customer.subscription.updated":
		var obj domain.SubscriptionObject
		if err := json.Unmarshal(event.Data.Object, &obj); err != nil {
			s.logger.Error("failed to decode subscription object", "event_id", event.ID, "error", err)
			return
		}
		s.logger.Info("subscription updated",
			"subscription_id", obj.ID,
			"status", obj.Status,
			"customer_id", string(obj.Customer))
		s.recordTransition(ctx, event, obj, obj.Status)

	case "customer.subscription.deleted":
		var obj domain.SubscriptionObject
		if err := json.Unmarshal(event.Data.Object, &obj); err != nil {
			s.logger.Error("failed to decode subscription object", "event_id", event.ID, "error", err)
			return
		}
		s.logger.Info("subscription cancelled",
			"subscription_id", obj.ID,
			"customer_id", string(obj.Customer))
		s.recordTransition(ctx, event, obj, "canceled")

	case "invoice.payment_failed":
		var obj domain.InvoiceObject
		if err := json.Unmarshal(event.Data.Object, &obj); err != nil {
			s.logger.Error("failed to decode invoice object", "event_id", event.ID, "error", err)
			return
		}
		s.logger.Info("payment failed",
			"customer_id", string(obj.Customer),
			"invoice_id", obj.ID)

	default:
		s.logger.Info("unhandled webhook event type", "type", event.Type)
	}
}

// recordTransition persists and publishes a subscription state change.
func (s Service) recordTransition(ctx context.Context, event domain.StripeEvent, obj domain.SubscriptionObject, status string) {
	occurredAt := time.Unix(event.Created, 0)
	if event.Created == 0 {
		occurredAt = time.Now()
	}

	if s.repo != nil {
		transition := domain.EntitlementTransition{
			CustomerID:     string(obj.Customer),
			SubscriptionID: obj.ID,
			Status:         status,
			EventType:      event.Type,
			OccurredAt:     occurredAt,
		}
		if err := s.repo.RecordTransition(ctx, transition); err != nil {
			s.logger.Error("failed to record entitlement transition", "subscription_id", obj.ID, "error", err)
		}
	}

	if s.events != nil {
		message := domain.EntitlementEvent{
			CustomerID:     string(obj.Customer),
			SubscriptionID: obj.ID,
			Status:         status,
			EventType:      event.Type,
		}
		if err := s.events.Publish(ctx, "subscription."+status, message); err != nil {
			s.logger.Error("failed to publish entitlement event", "subscription_id", obj.ID, "error", err)
		}
	}
}
