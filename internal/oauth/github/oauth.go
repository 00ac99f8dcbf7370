// Package github implements the GitHub OAuth 2.0 shortcut flow.
// GitHub profile URLs cannot advertise IndieAuth endpoints, so the
// broker authenticates those users against GitHub directly and maps
// the account login back to its profile URL.
package github

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

const (
	defaultAuthEndpoint  = "https://github.com/login/oauth/authorize"
	defaultTokenEndpoint = "https://github.com/login/oauth/access_token"
	defaultUserEndpoint  = "https://api.github.com/user"
)

// ErrDecodeFailed means GitHub answered with a body that could not be
// parsed.
var ErrDecodeFailed = errors.New("github: error parsing response body")

// StatusError is a non-200 answer from GitHub's token endpoint.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("github: status %d: %s", e.Status, e.Body)
}

// OAuthError is a token response without an access token. Code and
// Description may be empty when GitHub gives no reason.
type OAuthError struct {
	Code        string
	Description string
}

func (e *OAuthError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("github oauth error: %s: %s", e.Code, e.Description)
	}
	if e.Code != "" {
		return fmt.Sprintf("github oauth error: %s", e.Code)
	}
	return "github oauth error: no access token"
}

// OAuth is the GitHub OAuth 2.0 client.
//
// The endpoint fields default to github.com and are overridable so
// tests can point the client at a local server.
type OAuth struct {
	ClientID     string
	ClientSecret string

	AuthEndpoint  string
	TokenEndpoint string
	UserEndpoint  string

	http *http.Client
}

// New creates a new GitHub OAuth client.
func New(clientID, clientSecret string, hc *http.Client) *OAuth {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &OAuth{
		ClientID:      clientID,
		ClientSecret:  clientSecret,
		AuthEndpoint:  defaultAuthEndpoint,
		TokenEndpoint: defaultTokenEndpoint,
		UserEndpoint:  defaultUserEndpoint,
		http:          hc,
	}
}

// AuthURL builds the authorization URL. The redirect URI is the one
// registered with the GitHub application, so only client_id and state
// travel in the query.
func (g *OAuth) AuthURL(state string) (string, error) {
	u, err := url.Parse(g.AuthEndpoint)
	if err != nil {
		return "", fmt.Errorf("github: auth endpoint: %w", err)
	}
	q := u.Query()
	q.Set("client_id", g.ClientID)
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// TokenResponse is the response from GitHub's token endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
	Error       string `json:"error,omitempty"`
	ErrorDesc   string `json:"error_description,omitempty"`
}

// ExchangeCode exchanges an authorization code for an access token.
// GitHub reports some failures as a 200 with an error field, so both
// the status and the body are checked.
func (g *OAuth) ExchangeCode(ctx context.Context, code, state string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("client_id", g.ClientID)
	form.Set("client_secret", g.ClientSecret)
	form.Set("code", code)
	form.Set("state", state)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.TokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var tr TokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	if tr.AccessToken == "" {
		return nil, &OAuthError{Code: tr.Error, Description: tr.ErrorDesc}
	}
	return &tr, nil
}

// UserInfo is the subset of the GitHub user resource the broker needs.
type UserInfo struct {
	ID      int64  `json:"id"`
	Login   string `json:"login"`
	Name    string `json:"name"`
	HTMLURL string `json:"html_url"`
}

// GetUserInfo fetches the authenticated user behind the access token.
func (g *OAuth) GetUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.UserEndpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("github api error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	if info.Login == "" {
		return nil, fmt.Errorf("github: user response carried no login")
	}
	return &info, nil
}

// ProfileURL maps a GitHub login to the profile URL users sign in with.
func ProfileURL(login string) string {
	return "https://github.com/" + login
}
