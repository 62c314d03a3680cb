/**
 * @description
 * This package provides a client for interacting with the Stripe API.
 * It encapsulates the logic for making authenticated HTTP requests to Stripe's
 * endpoints, handling request body construction, and parsing responses.
 *
 * Stripe's REST API takes form-encoded request bodies and returns JSON.
 * Only the resources this service touches are modeled: checkout sessions,
 * subscriptions, and billing-portal sessions.
 *
 * @dependencies
 * - context, encoding/json, fmt, net/http, net/url, strings, time: Standard Go libraries.
 */
package stripeclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the live Stripe API endpoint.
const DefaultBaseURL = "https://api.stripe.com"

// Client is a client for the Stripe API.
type Client struct {
	BaseURL    string
	SecretKey  string
	HTTPClient *http.Client
}

// NewClient creates a new Stripe API client authenticated with the given
// secret key.
func NewClient(secretKey string) *Client {
	return &Client{
		BaseURL:   DefaultBaseURL,
		SecretKey: secretKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Customer is a Stripe customer record.
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Subscription is a Stripe subscription record.
type Subscription struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
}

// CheckoutSession is a Stripe checkout session retrieved with its customer
// and subscription expanded.
type CheckoutSession struct {
	ID            string        `json:"id"`
	URL           string        `json:"url"`
	PaymentStatus string        `json:"payment_status"`
	CustomerEmail string        `json:"customer_email"`
	Customer      *Customer     `json:"customer"`
	Subscription  *Subscription `json:"subscription"`
}

// createCheckoutResponse models the create response, which carries the
// customer and subscription as unexpanded ID strings that the create path
// never reads.
type createCheckoutResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PortalSession is a Stripe billing-portal session.
type PortalSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// subscriptionList is the envelope of a subscription list response.
type subscriptionList struct {
	Data []Subscription `json:"data"`
}

// ErrorResponse represents an error from the Stripe API.
type ErrorResponse struct {
	StatusCode int `json:"-"`
	Err        struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *ErrorResponse) Error() string {
	if e.Err.Message != "" {
		return fmt.Sprintf("stripe api error: %s - %s", e.Err.Type, e.Err.Message)
	}
	return fmt.Sprintf("stripe api error: status %d", e.StatusCode)
}

// CheckoutParams describes a subscription checkout to create. PriceID is the
// single configured price; Email, SuccessURL, and CancelURL are optional and
// omitted from the request when empty.
type CheckoutParams struct {
	PriceID    string
	Email      string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// CreateCheckoutSession creates a Stripe-hosted subscription checkout.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][price]", params.PriceID)
	form.Set("line_items[0][quantity]", "1")
	if params.Email != "" {
		form.Set("customer_email", params.Email)
	}
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	for k, v := range params.Metadata {
		form.Set(fmt.Sprintf("subscription_data[metadata][%s]", k), v)
	}

	var resp createCheckoutResponse
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &resp); err != nil {
		return nil, err
	}
	return &CheckoutSession{ID: resp.ID, URL: resp.URL}, nil
}

// GetCheckoutSession retrieves a checkout session with its subscription and
// customer sub-objects expanded.
func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("expand[0]", "subscription")
	form.Set("expand[1]", "customer")

	var resp CheckoutSession
	path := "/v1/checkout/sessions/" + url.PathEscape(sessionID)
	if err := c.do(ctx, http.MethodGet, path, form, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListActiveSubscriptions returns up to limit active subscriptions for the
// given customer.
func (c *Client) ListActiveSubscriptions(ctx context.Context, customerID string, limit int) ([]Subscription, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("status", "active")
	form.Set("limit", strconv.Itoa(limit))

	var resp subscriptionList
	if err := c.do(ctx, http.MethodGet, "/v1/subscriptions", form, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// CreatePortalSession creates a Stripe-hosted self-service billing portal
// session for an existing customer.
func (c *Client) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*PortalSession, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("return_url", returnURL)

	var resp PortalSession
	if err := c.do(ctx, http.MethodPost, "/v1/billing_portal/sessions", form, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do executes a single Stripe API call. GET parameters and POST bodies are
// both form-encoded per Stripe's API conventions.
func (c *Client) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	endpoint := c.BaseURL + path

	var body io.Reader
	if method == http.MethodGet {
		if encoded := form.Encode(); encoded != "" {
			endpoint += "?" + encoded
		}
	} else {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create stripe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	if method != http.MethodGet {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call stripe: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read stripe response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &ErrorResponse{StatusCode: resp.StatusCode}
		// Best effort: an unparsable error body still yields the status code.
		_ = json.Unmarshal(respBody, apiErr)
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode stripe response: %w", err)
		}
	}
	return nil
}
