/**
 * @description
 * This file implements the data access layer for the membership-service.
 * The only persisted state is the log of entitlement transitions observed
 * through Stripe webhooks; everything else the service knows lives in the
 * subscriber's cookie or upstream at Stripe.
 */
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/theinsider/membership-service/internal/domain"
)

// ErrTransitionNotFound is returned when no transition has been recorded for
// a subscription.
var ErrTransitionNotFound = errors.New("entitlement transition not found")

// Repository handles database operations for entitlement transitions.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// RecordTransition upserts the latest observed state for a subscription.
func (r *Repository) RecordTransition(ctx context.Context, t domain.EntitlementTransition) error {
	query := `
        INSERT INTO entitlement_transitions (customer_id, subscription_id, status, event_type, occurred_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (subscription_id) DO UPDATE SET
            customer_id = EXCLUDED.customer_id,
            status = EXCLUDED.status,
            event_type = EXCLUDED.event_type,
            occurred_at = EXCLUDED.occurred_at
        WHERE entitlement_transitions.occurred_at <= EXCLUDED.occurred_at
    `
	_, err := r.db.Exec(ctx, query,
		t.CustomerID,
		t.SubscriptionID,
		t.Status,
		t.EventType,
		t.OccurredAt,
	)
	return err
}

// LatestTransition retrieves the most recently recorded transition for a
// subscription.
func (r *Repository) LatestTransition(ctx context.Context, subscriptionID string) (*domain.EntitlementTransition, error) {
	var t domain.EntitlementTransition
	query := `
        SELECT customer_id, subscription_id, status, event_type, occurred_at
        FROM entitlement_transitions
        WHERE subscription_id = $1
    `
	err := r.db.QueryRow(ctx, query, subscriptionID).Scan(
		&t.CustomerID,
		&t.SubscriptionID,
		&t.Status,
		&t.EventType,
		&t.OccurredAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrTransitionNotFound
		}
		return nil, err
	}
	return &t, nil
}
