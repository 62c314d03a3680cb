/**
 * @description
 * This package provides a client for the Drupal CMS GraphQL endpoint.
 * It owns the short-lived bearer token obtained from the CMS's OAuth token
 * endpoint via a client-credentials exchange, and forwards GraphQL requests
 * verbatim with that token attached.
 *
 * Key features:
 * - Token caching: the token source is constructed once per process and
 *   re-exchanges credentials only when the cached token expires within 60
 *   seconds. A failed exchange is surfaced to the calling request, not
 *   retried.
 * - Pass-through queries: request bytes go to the CMS untouched and response
 *   bytes come back untouched, including any GraphQL-level `errors` array.
 *   Only transport failures become Go errors.
 *
 * @dependencies
 * - golang.org/x/oauth2, golang.org/x/oauth2/clientcredentials: token
 *   exchange and refresh-on-demand caching.
 */
package cmsclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// tokenRefreshWindow is how close to expiry the cached token may get before
// the next request triggers a fresh exchange.
const tokenRefreshWindow = 60 * time.Second

// Client talks to the Drupal GraphQL endpoint with a cached bearer token.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	tokens oauth2.TokenSource
}

// NewClient creates a CMS client for the given base URL and OAuth client
// credentials. The token cache lives for the lifetime of the client.
func NewClient(baseURL, clientID, clientSecret string) *Client {
	base := strings.TrimRight(baseURL, "/")
	cc := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     base + "/oauth/token",
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	return &Client{
		BaseURL: base,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens: oauth2.ReuseTokenSourceWithExpiry(nil, cc.TokenSource(context.Background()), tokenRefreshWindow),
	}
}

// Token returns a valid access token, exchanging credentials if the cached
// one is missing or near expiry.
func (c *Client) Token() (string, error) {
	tok, err := c.tokens.Token()
	if err != nil {
		return "", fmt.Errorf("failed to get CMS access token: %w", err)
	}
	return tok.AccessToken, nil
}

// Query forwards a GraphQL request body verbatim to the CMS and returns the
// raw response bytes and status code. GraphQL-level errors in the response
// are the caller's to interpret.
func (c *Client) Query(ctx context.Context, body []byte) ([]byte, int, error) {
	token, err := c.Token()
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/graphql", bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create CMS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to reach CMS: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read CMS response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}
