// Package auth contains the sign-in services: starting an attempt,
// completing the two callback variants, and logging out.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/compasshq/websignin/internal/indieauth"
	"github.com/compasshq/websignin/internal/oauth/github"
	"github.com/compasshq/websignin/internal/session"
	"github.com/compasshq/websignin/internal/store/core"
)

// Sentinel errors shared by the services. Controllers map these to
// user-facing pages.
var (
	ErrInvalidProfileURL = errors.New("auth: invalid profile URL")
	ErrMissingAttempt    = errors.New("auth: no sign-in attempt in session")
	ErrStateMismatch     = errors.New("auth: state did not match")
	ErrMissingCode       = errors.New("auth: no authorization code")
	ErrExchangeFailed    = errors.New("auth: code exchange failed")
	ErrMissingIdentity   = errors.New("auth: endpoint returned no identity")
	ErrFinalizeFailed    = errors.New("auth: could not finalize login")
)

// ProviderDeniedError is an error relayed by the authorization server
// through the callback query string.
type ProviderDeniedError struct {
	Reason string
}

func (e *ProviderDeniedError) Error() string {
	return fmt.Sprintf("auth: provider denied: %s", e.Reason)
}

// StartRequest begins a sign-in attempt for the given profile URL.
type StartRequest struct {
	SessionID string
	Me        string
}

// StartResult carries the URL the user must be redirected to.
type StartResult struct {
	RedirectURL string
	Flow        session.Flow
}

// CallbackRequest carries the query parameters of a callback hit.
type CallbackRequest struct {
	SessionID     string
	State         string
	Code          string
	ProviderError string
}

// CallbackResult is a completed login.
type CallbackResult struct {
	Me     string
	UserID string
}

type StartService interface {
	Start(ctx context.Context, req StartRequest) (*StartResult, error)
}

// CallbackService completes the generic flow callback.
type CallbackService interface {
	Callback(ctx context.Context, req CallbackRequest) (*CallbackResult, error)
}

// GitHubCallbackService completes the GitHub shortcut flow callback.
type GitHubCallbackService interface {
	Callback(ctx context.Context, req CallbackRequest) (*CallbackResult, error)
}

type LogoutService interface {
	Logout(ctx context.Context, sessionID string) error
}

// Deps are the shared dependencies of the auth services.
type Deps struct {
	Sessions   *session.Manager
	Users      core.Repository
	Discoverer indieauth.Discoverer
	IndieAuth  *indieauth.Client
	GitHub     *github.OAuth

	// DefaultAuthEndpoint is used when discovery finds nothing.
	DefaultAuthEndpoint string
}

// Services groups the auth services for wiring.
type Services struct {
	Start    StartService
	Callback CallbackService
	GitHub   GitHubCallbackService
	Logout   LogoutService
}

// NewServices builds the full set of auth services.
func NewServices(d Deps) Services {
	fin := &finalizer{sessions: d.Sessions, users: d.Users}
	return Services{
		Start:    NewStartService(d),
		Callback: NewCallbackService(d, fin),
		GitHub:   NewGitHubCallbackService(d, fin),
		Logout:   NewLogoutService(d),
	}
}

// logoutService drops the whole session.
type logoutService struct {
	sessions *session.Manager
}

func NewLogoutService(d Deps) LogoutService {
	return &logoutService{sessions: d.Sessions}
}

func (s *logoutService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Clear(ctx, sessionID)
}
