package indieauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrMissingIdentity means the endpoint accepted the code but returned no
// verified identity; the login cannot be completed.
var ErrMissingIdentity = errors.New("indieauth: response carried no identity")

// Client redeems authorization codes against per-user endpoints.
//
// The relying party identifies itself by its base URL: client_id is the
// application URL and redirect_uri points back at the callback route.
type Client struct {
	ClientID    string
	RedirectURI string

	http *http.Client
}

func NewClient(clientID, redirectURI string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{ClientID: clientID, RedirectURI: redirectURI, http: hc}
}

// BuildAuthorizationURL assembles the redirect target for the generic flow.
// response_type=id asks the endpoint for identification only, the legacy
// protocol variant this broker speaks.
func (c *Client) BuildAuthorizationURL(endpoint, me, state string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("indieauth: authorization endpoint: %w", err)
	}
	q := u.Query()
	q.Set("me", me)
	q.Set("redirect_uri", c.RedirectURI)
	q.Set("client_id", c.ClientID)
	q.Set("state", state)
	q.Set("response_type", "id")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Verification is the minimal response shape of a successful exchange.
type Verification struct {
	Me string `json:"me"`
}

// RedeemCode trades the authorization code at a discovered token endpoint
// for the verified identity.
func (c *Client) RedeemCode(ctx context.Context, tokenEndpoint, code, me, state string) (*Verification, error) {
	return c.exchange(ctx, tokenEndpoint, code, me, state)
}

// VerifyCode is the legacy verify-only variant: when no token endpoint was
// discovered, the authorization endpoint itself verifies the code.
func (c *Client) VerifyCode(ctx context.Context, authorizationEndpoint, code, me, state string) (*Verification, error) {
	return c.exchange(ctx, authorizationEndpoint, code, me, state)
}

// exchange POSTs the code with the parameters both protocol variants share
// and parses the response by content type. The endpoint may canonicalize
// the identity: the returned me is trusted as final.
func (c *Client) exchange(ctx context.Context, endpoint, code, me, state string) (*Verification, error) {
	form := url.Values{}
	form.Set("code", code)
	form.Set("me", me)
	form.Set("redirect_uri", c.RedirectURI)
	form.Set("client_id", c.ClientID)
	form.Set("state", state)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("indieauth: exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("indieauth: exchange: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("indieauth: exchange read: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("indieauth: exchange failed: status %d: %s", resp.StatusCode, snippet(body))
	}

	v, err := parseVerification(resp.Header.Get("Content-Type"), body)
	if err != nil {
		return nil, err
	}
	if v.Me == "" {
		return nil, ErrMissingIdentity
	}
	return v, nil
}

// parseVerification accepts JSON and, for older endpoints, form-encoded
// bodies.
func parseVerification(contentType string, body []byte) (*Verification, error) {
	if strings.Contains(strings.ToLower(contentType), "application/json") {
		var v Verification
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, fmt.Errorf("indieauth: unparsable response: %w", err)
		}
		return &v, nil
	}

	vals, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("indieauth: unparsable response: %w", err)
	}
	return &Verification{Me: vals.Get("me")}, nil
}

func snippet(b []byte) string {
	const max = 200
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
