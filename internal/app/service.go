/**
 * @description
 * This file contains the core business logic for the membership-service:
 * deciding whether a subscriber is entitled to gated content, turning a
 * completed Stripe checkout into a subscriber session, and creating
 * checkout and billing-portal sessions.
 *
 * Key behaviors:
 * - Entitlement fails closed: any Stripe error during the fallback check is
 *   logged and treated as "not entitled" so a processor outage never takes
 *   content pages down with it.
 * - A session whose status is already "active" grants access without a
 *   remote call. When a database is configured, a webhook-recorded revoking
 *   transition overrides that shortcut.
 * - All Stripe-backed operations refuse to run unless the integration is
 *   fully configured, except in demo mode where checkout is simulated.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theinsider/membership-service/internal/config"
	"github.com/theinsider/membership-service/internal/domain"
	"github.com/theinsider/membership-service/internal/store"
	"github.com/theinsider/membership-service/pkg/stripeclient"
)

var (
	// ErrNotConfigured indicates the Stripe integration is missing one or
	// more of its required configuration values.
	ErrNotConfigured = errors.New("stripe is not configured")

	// ErrPaymentNotCompleted indicates a checkout session whose payment has
	// not been collected.
	ErrPaymentNotCompleted = errors.New("payment not completed")

	// ErrNoSession indicates an operation that requires a subscriber
	// session was called without one.
	ErrNoSession = errors.New("no active subscription found")
)

// sessionFallbackTTL is the session lifetime used when Stripe does not
// report a billing-period end.
const sessionFallbackTTL = 30 * 24 * time.Hour

// checkoutMetadataSource tags subscriptions created through this service.
const checkoutMetadataSource = "decoupled-sub"

// StripeAPI is the slice of the Stripe client the service depends on.
type StripeAPI interface {
	CreateCheckoutSession(ctx context.Context, params stripeclient.CheckoutParams) (*stripeclient.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*stripeclient.CheckoutSession, error)
	ListActiveSubscriptions(ctx context.Context, customerID string, limit int) ([]stripeclient.Subscription, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (*stripeclient.PortalSession, error)
}

// Repository defines the database operations the service needs. Nil when no
// database is configured.
type Repository interface {
	RecordTransition(ctx context.Context, t domain.EntitlementTransition) error
	LatestTransition(ctx context.Context, subscriptionID string) (*domain.EntitlementTransition, error)
}

// EventPublisher publishes entitlement events to the message broker. Nil
// when no broker is configured.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body interface{}) error
}

// Service provides the business logic for subscriber entitlement and billing.
type Service struct {
	logger   *slog.Logger
	stripe   StripeAPI
	repo     Repository
	events   EventPublisher
	priceID  string
	siteURL  string
	demoMode bool
}

// NewService creates the membership service. stripe may be nil when the
// integration is unconfigured; repo and events are optional.
func NewService(logger *slog.Logger, stripe StripeAPI, repo Repository, events EventPublisher, cfg config.Config) Service {
	return Service{
		logger:   logger,
		stripe:   stripe,
		repo:     repo,
		events:   events,
		priceID:  cfg.StripePriceID,
		siteURL:  strings.TrimRight(cfg.SiteURL, "/"),
		demoMode: cfg.DemoMode,
	}
}

// HasActiveSubscription decides whether the given session grants access to
// gated content. sess is the already-decoded cookie session; nil means no
// (or an expired) session.
func (s Service) HasActiveSubscription(ctx context.Context, sess *domain.SubscriberSession) bool {
	if sess == nil || sess.Expired(time.Now()) {
		return false
	}

	// A webhook-recorded cancellation beats whatever the cookie claims.
	if s.repo != nil && sess.SubscriptionID != "" {
		transition, err := s.repo.LatestTransition(ctx, sess.SubscriptionID)
		if err != nil && !errors.Is(err, store.ErrTransitionNotFound) {
			s.logger.Error("failed to look up entitlement transition", "subscription_id", sess.SubscriptionID, "error", err)
		}
		if transition != nil && transition.Revoking() {
			return false
		}
	}

	// Trust a locally-cached active status; this avoids a Stripe round-trip
	// on every gated page view at the cost of staleness within the cookie's
	// lifetime.
	if sess.Status == domain.StatusActive {
		return true
	}

	// Status is ambiguous: ask Stripe. Errors here fail closed.
	if s.stripe == nil {
		return false
	}
	subscriptions, err := s.stripe.ListActiveSubscriptions(ctx, sess.CustomerID, 1)
	if err != nil {
		s.logger.Error("failed to verify subscription with stripe", "customer_id", sess.CustomerID, "error", err)
		return false
	}
	return len(subscriptions) > 0
}

// CreateCheckout creates a Stripe-hosted subscription checkout for the
// single configured price. Empty successURL/cancelURL fall back to the
// site's confirmation and pricing pages.
func (s Service) CreateCheckout(ctx context.Context, email, successURL, cancelURL string) (sessionID, url string, err error) {
	if successURL == "" {
		successURL = s.siteURL + "/subscribe/success?session_id={CHECKOUT_SESSION_ID}"
	}
	if cancelURL == "" {
		cancelURL = s.siteURL + "/pricing"
	}

	if s.demoMode {
		// Simulated checkout: send the user straight to the confirmation
		// page with a session id the verify path recognizes.
		id := "demo_" + uuid.NewString()
		return id, strings.Replace(successURL, "{CHECKOUT_SESSION_ID}", id, 1), nil
	}

	if s.stripe == nil {
		return "", "", ErrNotConfigured
	}

	session, err := s.stripe.CreateCheckoutSession(ctx, stripeclient.CheckoutParams{
		PriceID:    s.priceID,
		Email:      email,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
		Metadata:   map[string]string{"source": checkoutMetadataSource},
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	return session.ID, session.URL, nil
}

// VerifyCheckout retrieves a checkout session from Stripe and, if its
// payment is collected, materializes the subscriber session. The caller is
// responsible for writing the cookie.
func (s Service) VerifyCheckout(ctx context.Context, sessionID string) (*domain.SubscriberSession, error) {
	if s.demoMode && strings.HasPrefix(sessionID, "demo_") {
		return &domain.SubscriberSession{
			CustomerID:     "demo_customer",
			Email:          "demo@example.com",
			SubscriptionID: "demo_subscription",
			Status:         domain.StatusActive,
			ExpiresAt:      time.Now().Add(sessionFallbackTTL).UnixMilli(),
		}, nil
	}

	if s.stripe == nil {
		return nil, ErrNotConfigured
	}

	session, err := s.stripe.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve checkout session: %w", err)
	}

	if session.PaymentStatus != "paid" {
		return nil, ErrPaymentNotCompleted
	}

	sess := &domain.SubscriberSession{
		Status:    domain.StatusActive,
		ExpiresAt: time.Now().Add(sessionFallbackTTL).UnixMilli(),
		Email:     session.CustomerEmail,
	}
	if session.Customer != nil {
		sess.CustomerID = session.Customer.ID
		if session.Customer.Email != "" {
			sess.Email = session.Customer.Email
		}
	}
	if session.Subscription != nil {
		sess.SubscriptionID = session.Subscription.ID
		sess.Status = session.Subscription.Status
		if session.Subscription.CurrentPeriodEnd != 0 {
			// Stripe reports period boundaries in epoch seconds; the
			// session keeps milliseconds.
			sess.ExpiresAt = session.Subscription.CurrentPeriodEnd * 1000
		}
	}
	return sess, nil
}

// CreatePortal creates a Stripe-hosted self-service billing portal session
// returning to the account page. Requires a session with a customer id.
func (s Service) CreatePortal(ctx context.Context, sess *domain.SubscriberSession) (string, error) {
	if s.stripe == nil {
		return "", ErrNotConfigured
	}
	if sess == nil || sess.CustomerID == "" {
		return "", ErrNoSession
	}

	portal, err := s.stripe.CreatePortalSession(ctx, sess.CustomerID, s.siteURL+"/account")
	if err != nil {
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}
	return portal.URL, nil
}
