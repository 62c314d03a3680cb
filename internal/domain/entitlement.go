package domain

import "time"

// EntitlementTransition records a subscription state change observed through
// a Stripe webhook. The latest transition for a subscription is what the
// entitlement check consults before trusting a cookie-cached "active".
type EntitlementTransition struct {
	CustomerID     string    `json:"customer_id"`
	SubscriptionID string    `json:"subscription_id"`
	Status         string    `json:"status"`
	EventType      string    `json:"event_type"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Revoking reports whether this transition should override a session that
// still claims to be active.
func (t EntitlementTransition) Revoking() bool {
	switch t.Status {
	case "canceled", "unpaid", "incomplete_expired":
		return true
	}
	return false
}
