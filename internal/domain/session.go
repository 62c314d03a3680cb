/**
 * @description
 * This file defines the subscriber session, the service's only record of who
 * is subscribed. The session lives entirely in an httpOnly cookie on the
 * subscriber's browser; there is no server-side session table.
 */
package domain

import "time"

// SubscriberSession represents a subscriber's claimed entitlement state.
// It is created once after a completed checkout and replaced wholesale on
// every write, never patched field by field.
type SubscriberSession struct {
	// CustomerID is the Stripe customer identifier, stable for the
	// customer's lifetime.
	CustomerID string `json:"customerId"`

	// Email is best-effort and used for display only.
	Email string `json:"email"`

	// SubscriptionID identifies the specific subscription record.
	SubscriptionID string `json:"subscriptionId"`

	// Status mirrors Stripe subscription states ('active', 'canceled',
	// 'past_due', 'incomplete', ...). Only 'active' is special-cased.
	Status string `json:"status"`

	// ExpiresAt is the local renewal boundary in epoch milliseconds.
	// Zero means the session never locally expires.
	ExpiresAt int64 `json:"expiresAt"`
}

// StatusActive is the only subscription status granted access without a
// remote check.
const StatusActive = "active"

// Expired reports whether the session's local renewal boundary has passed.
// An expired session is treated everywhere as if no session exists.
func (s SubscriberSession) Expired(now time.Time) bool {
	return s.ExpiresAt != 0 && s.ExpiresAt < now.UnixMilli()
}
