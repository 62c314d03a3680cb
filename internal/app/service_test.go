package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/theinsider/membership-service/internal/config"
	"github.com/theinsider/membership-service/internal/domain"
	"github.com/theinsider/membership-service/internal/store"
	"github.com/theinsider/membership-service/pkg/stripeclient"
)

// fakeStripe implements StripeAPI with canned responses and call recording.
type fakeStripe struct {
	createResult *stripeclient.CheckoutSession
	createErr    error
	createParams []stripeclient.CheckoutParams

	getResult *stripeclient.CheckoutSession
	getErr    error

	listResult []stripeclient.Subscription
	listErr    error
	listCalls  int

	portalResult   *stripeclient.PortalSession
	portalErr      error
	portalCustomer string
	portalReturn   string
}

func (f *fakeStripe) CreateCheckoutSession(_ context.Context, params stripeclient.CheckoutParams) (*stripeclient.CheckoutSession, error) {
	f.createParams = append(f.createParams, params)
	return f.createResult, f.createErr
}

func (f *fakeStripe) GetCheckoutSession(_ context.Context, _ string) (*stripeclient.CheckoutSession, error) {
	return f.getResult, f.getErr
}

func (f *fakeStripe) ListActiveSubscriptions(_ context.Context, _ string, _ int) ([]stripeclient.Subscription, error) {
	f.listCalls++
	return f.listResult, f.listErr
}

func (f *fakeStripe) CreatePortalSession(_ context.Context, customerID, returnURL string) (*stripeclient.PortalSession, error) {
	f.portalCustomer = customerID
	f.portalReturn = returnURL
	return f.portalResult, f.portalErr
}

// fakeRepo implements Repository in memory.
type fakeRepo struct {
	transitions map[string]domain.EntitlementTransition
	recorded    []domain.EntitlementTransition
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{transitions: make(map[string]domain.EntitlementTransition)}
}

func (f *fakeRepo) RecordTransition(_ context.Context, t domain.EntitlementTransition) error {
	f.transitions[t.SubscriptionID] = t
	f.recorded = append(f.recorded, t)
	return nil
}

func (f *fakeRepo) LatestTransition(_ context.Context, subscriptionID string) (*domain.EntitlementTransition, error) {
	t, ok := f.transitions[subscriptionID]
	if !ok {
		return nil, store.ErrTransitionNotFound
	}
	return &t, nil
}

// fakePublisher records published entitlement events.
type fakePublisher struct {
	keys   []string
	bodies []interface{}
}

func (f *fakePublisher) Publish(_ context.Context, routingKey string, body interface{}) error {
	f.keys = append(f.keys, routingKey)
	f.bodies = append(f.bodies, body)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.Config {
	return config.Config{
		SiteURL:       "https://example.com",
		StripePriceID: "price_123",
	}
}

func newTestService(stripe StripeAPI, repo Repository, events EventPublisher) Service {
	return NewService(testLogger(), stripe, repo, events, testConfig())
}

func futureSession(status string) *domain.SubscriberSession {
	return &domain.SubscriberSession{
		CustomerID:     "cus_123",
		Email:          "reader@example.com",
		SubscriptionID: "sub_456",
		Status:         status,
		ExpiresAt:      time.Now().Add(time.Hour).UnixMilli(),
	}
}

func TestHasActiveSubscriptionNoSession(t *testing.T) {
	svc := newTestService(&fakeStripe{}, nil, nil)
	if svc.HasActiveSubscription(context.Background(), nil) {
		t.Fatal("expected false without a session")
	}
}

func TestHasActiveSubscriptionExpiredSession(t *testing.T) {
	stripe := &fakeStripe{listResult: []stripeclient.Subscription{{ID: "sub_456", Status: "active"}}}
	svc := newTestService(stripe, nil, nil)

	for _, status := range []string{"active", "canceled", "past_due", "incomplete"} {
		sess := futureSession(status)
		sess.ExpiresAt = time.Now().Add(-time.Minute).UnixMilli()
		if svc.HasActiveSubscription(context.Background(), sess) {
			t.Fatalf("expected false for expired session with status %q", status)
		}
	}
	if stripe.listCalls != 0 {
		t.Fatalf("expected no remote calls for expired sessions, got %d", stripe.listCalls)
	}
}

func TestHasActiveSubscriptionActiveShortCircuits(t *testing.T) {
	stripe := &fakeStripe{listErr: errors.New("should not be called")}
	svc := newTestService(stripe, nil, nil)

	if !svc.HasActiveSubscription(context.Background(), futureSession("active")) {
		t.Fatal("expected true for active session")
	}
	if stripe.listCalls != 0 {
		t.Fatalf("active status must not trigger a remote check, got %d calls", stripe.listCalls)
	}
}

func TestHasActiveSubscriptionFallbackChecksStripe(t *testing.T) {
	t.Run("subscription found", func(t *testing.T) {
		stripe := &fakeStripe{listResult: []stripeclient.Subscription{{ID: "sub_456", Status: "active"}}}
		svc := newTestService(stripe, nil, nil)
		if !svc.HasActiveSubscription(context.Background(), futureSession("past_due")) {
			t.Fatal("expected true when stripe reports an active subscription")
		}
		if stripe.listCalls != 1 {
			t.Fatalf("expected 1 remote call, got %d", stripe.listCalls)
		}
	})

	t.Run("none found", func(t *testing.T) {
		stripe := &fakeStripe{}
		svc := newTestService(stripe, nil, nil)
		if svc.HasActiveSubscription(context.Background(), futureSession("canceled")) {
			t.Fatal("expected false when stripe reports no active subscription")
		}
	})

	t.Run("stripe error fails closed", func(t *testing.T) {
		stripe := &fakeStripe{listErr: errors.New("stripe is down")}
		svc := newTestService(stripe, nil, nil)
		if svc.HasActiveSubscription(context.Background(), futureSession("past_due")) {
			t.Fatal("expected false when the remote check fails")
		}
	})

	t.Run("stripe unconfigured", func(t *testing.T) {
		svc := newTestService(nil, nil, nil)
		if svc.HasActiveSubscription(context.Background(), futureSession("past_due")) {
			t.Fatal("expected false with no stripe client")
		}
	})
}

func TestHasActiveSubscriptionRevokedByTransition(t *testing.T) {
	repo := newFakeRepo()
	repo.transitions["sub_456"] = domain.EntitlementTransition{
		SubscriptionID: "sub_456",
		Status:         "canceled",
		EventType:      "customer.subscription.deleted",
		OccurredAt:     time.Now(),
	}
	stripe := &fakeStripe{}
	svc := newTestService(stripe, repo, nil)

	// The cookie still says active, but the webhook log says canceled.
	if svc.HasActiveSubscription(context.Background(), futureSession("active")) {
		t.Fatal("expected recorded cancellation to revoke access")
	}
}

func TestHasActiveSubscriptionNonRevokingTransitionKeepsShortCircuit(t *testing.T) {
	repo := newFakeRepo()
	repo.transitions["sub_456"] = domain.EntitlementTransition{
		SubscriptionID: "sub_456",
		Status:         "active",
		EventType:      "customer.subscription.updated",
		OccurredAt:     time.Now(),
	}
	svc := newTestService(&fakeStripe{}, repo, nil)

	if !svc.HasActiveSubscription(context.Background(), futureSession("active")) {
		t.Fatal("expected access with a non-revoking transition on record")
	}
}

func TestCreateCheckoutDefaultsURLs(t *testing.T) {
	stripe := &fakeStripe{createResult: &stripeclient.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/cs_1"}}
	svc := newTestService(stripe, nil, nil)

	id, url, err := svc.CreateCheckout(context.Background(), "reader@example.com", "", "")
	if err != nil {
		t.Fatalf("CreateCheckout returned error: %v", err)
	}
	if id != "cs_1" || url != "https://checkout.stripe.com/cs_1" {
		t.Fatalf("unexpected result %q %q", id, url)
	}

	if len(stripe.createParams) != 1 {
		t.Fatalf("expected 1 create call, got %d", len(stripe.createParams))
	}
	params := stripe.createParams[0]
	if params.SuccessURL != "https://example.com/subscribe/success?session_id={CHECKOUT_SESSION_ID}" {
		t.Fatalf("unexpected success url %q", params.SuccessURL)
	}
	if params.CancelURL != "https://example.com/pricing" {
		t.Fatalf("unexpected cancel url %q", params.CancelURL)
	}
	if params.PriceID != "price_123" {
		t.Fatalf("unexpected price %q", params.PriceID)
	}
	if params.Metadata["source"] != "decoupled-sub" {
		t.Fatalf("unexpected metadata %v", params.Metadata)
	}
}

func TestCreateCheckoutUnconfigured(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	if _, _, err := svc.CreateCheckout(context.Background(), "", "", ""); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestCreateCheckoutDemoMode(t *testing.T) {
	cfg := testConfig()
	cfg.DemoMode = true
	svc := NewService(testLogger(), nil, nil, nil, cfg)

	id, url, err := svc.CreateCheckout(context.Background(), "", "", "")
	if err != nil {
		t.Fatalf("CreateCheckout returned error: %v", err)
	}
	if !strings.HasPrefix(id, "demo_") {
		t.Fatalf("expected demo session id, got %q", id)
	}
	if !strings.Contains(url, "session_id="+id) {
		t.Fatalf("expected success url carrying the session id, got %q", url)
	}
}

func TestVerifyCheckoutNotPaid(t *testing.T) {
	stripe := &fakeStripe{getResult: &stripeclient.CheckoutSession{
		ID:            "cs_1",
		PaymentStatus: "unpaid",
	}}
	svc := newTestService(stripe, nil, nil)

	if _, err := svc.VerifyCheckout(context.Background(), "cs_1"); !errors.Is(err, ErrPaymentNotCompleted) {
		t.Fatalf("expected ErrPaymentNotCompleted, got %v", err)
	}
}

func TestVerifyCheckoutPaid(t *testing.T) {
	periodEnd := time.Now().Add(14 * 24 * time.Hour).Unix()
	stripe := &fakeStripe{getResult: &stripeclient.CheckoutSession{
		ID:            "cs_1",
		PaymentStatus: "paid",
		CustomerEmail: "fallback@example.com",
		Customer:      &stripeclient.Customer{ID: "cus_123", Email: "reader@example.com"},
		Subscription:  &stripeclient.Subscription{ID: "sub_456", Status: "active", CurrentPeriodEnd: periodEnd},
	}}
	svc := newTestService(stripe, nil, nil)

	sess, err := svc.VerifyCheckout(context.Background(), "cs_1")
	if err != nil {
		t.Fatalf("VerifyCheckout returned error: %v", err)
	}
	if sess.CustomerID != "cus_123" {
		t.Fatalf("unexpected customer id %q", sess.CustomerID)
	}
	if sess.Email != "reader@example.com" {
		t.Fatalf("expected expanded customer email, got %q", sess.Email)
	}
	if sess.SubscriptionID != "sub_456" || sess.Status != "active" {
		t.Fatalf("unexpected subscription fields %+v", sess)
	}
	if sess.ExpiresAt != periodEnd*1000 {
		t.Fatalf("expected expiresAt %d, got %d", periodEnd*1000, sess.ExpiresAt)
	}
}

func TestVerifyCheckoutFallbackExpiry(t *testing.T) {
	stripe := &fakeStripe{getResult: &stripeclient.CheckoutSession{
		ID:            "cs_1",
		PaymentStatus: "paid",
		CustomerEmail: "reader@example.com",
		Customer:      &stripeclient.Customer{ID: "cus_123"},
		Subscription:  &stripeclient.Subscription{ID: "sub_456", Status: "active"},
	}}
	svc := newTestService(stripe, nil, nil)

	before := time.Now().Add(sessionFallbackTTL).UnixMilli()
	sess, err := svc.VerifyCheckout(context.Background(), "cs_1")
	if err != nil {
		t.Fatalf("VerifyCheckout returned error: %v", err)
	}
	after := time.Now().Add(sessionFallbackTTL).UnixMilli()

	if sess.ExpiresAt < before || sess.ExpiresAt > after {
		t.Fatalf("expected fallback expiry ~30 days out, got %d", sess.ExpiresAt)
	}
	if sess.Email != "reader@example.com" {
		t.Fatalf("expected checkout email fallback, got %q", sess.Email)
	}
}

func TestVerifyCheckoutUnconfigured(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	if _, err := svc.VerifyCheckout(context.Background(), "cs_1"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestVerifyCheckoutDemoSession(t *testing.T) {
	cfg := testConfig()
	cfg.DemoMode = true
	svc := NewService(testLogger(), nil, nil, nil, cfg)

	sess, err := svc.VerifyCheckout(context.Background(), "demo_abc")
	if err != nil {
		t.Fatalf("VerifyCheckout returned error: %v", err)
	}
	if sess.Status != domain.StatusActive {
		t.Fatalf("expected active demo session, got %q", sess.Status)
	}
	if sess.ExpiresAt <= time.Now().UnixMilli() {
		t.Fatal("expected demo session to expire in the future")
	}
}

func TestCreatePortal(t *testing.T) {
	stripe := &fakeStripe{portalResult: &stripeclient.PortalSession{URL: "https://billing.stripe.com/p/1"}}
	svc := newTestService(stripe, nil, nil)

	url, err := svc.CreatePortal(context.Background(), futureSession("active"))
	if err != nil {
		t.Fatalf("CreatePortal returned error: %v", err)
	}
	if url != "https://billing.stripe.com/p/1" {
		t.Fatalf("unexpected url %q", url)
	}
	if stripe.portalCustomer != "cus_123" {
		t.Fatalf("unexpected customer %q", stripe.portalCustomer)
	}
	if stripe.portalReturn != "https://example.com/account" {
		t.Fatalf("unexpected return url %q", stripe.portalReturn)
	}
}

func TestCreatePortalRequiresSession(t *testing.T) {
	svc := newTestService(&fakeStripe{}, nil, nil)

	if _, err := svc.CreatePortal(context.Background(), nil); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession for nil session, got %v", err)
	}

	sess := futureSession("active")
	sess.CustomerID = ""
	if _, err := svc.CreatePortal(context.Background(), sess); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession without customer id, got %v", err)
	}
}

func TestCreatePortalUnconfigured(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	if _, err := svc.CreatePortal(context.Background(), futureSession("active")); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
