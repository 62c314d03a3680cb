/**
 * @description
 * This file defines the Go structs that model the incoming webhook payloads from Stripe.
 * These structures are essential for safely unmarshaling the JSON data received at the
 * webhook endpoint and processing it in a type-safe manner.
 *
 * @notes
 * - Stripe wraps every event payload in an envelope carrying the event type
 *   and a `data.object` whose shape depends on that type. Only the fields the
 *   dispatcher actually reads are modeled; the rest of the object is ignored
 *   by encoding/json.
 * - Stripe sends `customer` and `subscription` either as bare ID strings or
 *   as expanded objects depending on the event; ExpandableID accepts both.
 */
package domain

import (
	"bytes"
	"encoding/json"
)

// StripeEvent represents the top-level structure of a webhook payload from Stripe.
type StripeEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"` // e.g., "customer.subscription.updated"
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ExpandableID is a Stripe reference that is serialized either as a plain
// identifier string or as an expanded object with an "id" field.
type ExpandableID string

// UnmarshalJSON accepts both the string and the expanded-object encodings.
func (e *ExpandableID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*e = ExpandableID(s)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*e = ExpandableID(obj.ID)
	return nil
}

// CheckoutSessionObject is the data.object of a checkout.session.completed event.
type CheckoutSessionObject struct {
	ID            string       `json:"id"`
	Customer      ExpandableID `json:"customer"`
	CustomerEmail string       `json:"customer_email"`
	Subscription  ExpandableID `json:"subscription"`
	PaymentStatus string       `json:"payment_status"`
}

// SubscriptionObject is the data.object of customer.subscription.* events.
type SubscriptionObject struct {
	ID               string       `json:"id"`
	Customer         ExpandableID `json:"customer"`
	Status           string       `json:"status"`
	CurrentPeriodEnd int64        `json:"current_period_end"`
}

// InvoiceObject is the data.object of invoice.* events.
type InvoiceObject struct {
	ID           string       `json:"id"`
	Customer     ExpandableID `json:"customer"`
	Subscription ExpandableID `json:"subscription"`
}

// EntitlementEvent is the internal event payload published to RabbitMQ when
// a webhook reports a subscription state change.
type EntitlementEvent struct {
	CustomerID     string `json:"customer_id"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	Status         string `json:"status"`
	EventType      string `json:"event_type"`
}
