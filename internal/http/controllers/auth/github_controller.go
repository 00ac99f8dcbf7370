package auth

import (
	"errors"
	"net/http"
	"strings"

	httperrors "github.com/compasshq/websignin/internal/http/errors"
	svc "github.com/compasshq/websignin/internal/http/services/auth"
	"github.com/compasshq/websignin/internal/http/views"
	"github.com/compasshq/websignin/internal/oauth/github"
	"github.com/compasshq/websignin/internal/observability/logger"
	"github.com/compasshq/websignin/internal/session"
)

// GitHubController handles the GitHub shortcut flow callback endpoint.
type GitHubController struct {
	service  svc.GitHubCallbackService
	sessions *session.Manager
}

// NewGitHubController creates a new GitHubController.
func NewGitHubController(service svc.GitHubCallbackService, sessions *session.Manager) *GitHubController {
	return &GitHubController{service: service, sessions: sessions}
}

// Callback handles GET /auth/github
func (c *GitHubController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("GitHubController.Callback"))

	q := r.URL.Query()
	result, err := c.service.Callback(ctx, svc.CallbackRequest{
		SessionID:     c.sessions.SessionID(r),
		State:         strings.TrimSpace(q.Get("state")),
		Code:          strings.TrimSpace(q.Get("code")),
		ProviderError: strings.TrimSpace(q.Get("error")),
	})
	if err != nil {
		log.Warn("github callback failed", logger.Err(err))
		status, message := mapGitHubError(err)
		views.RenderError(w, status, message)
		return
	}

	log.Debug("github callback completed", logger.Me(result.Me))
	http.Redirect(w, r, "/", http.StatusFound)
}

// mapGitHubError maps a GitHub-flow service error to the page shown to
// the user.
func mapGitHubError(err error) (status int, message string) {
	var (
		denied    *svc.ProviderDeniedError
		statusErr *github.StatusError
		oauthErr  *github.OAuthError
	)
	switch {
	case errors.As(err, &denied):
		return http.StatusBadRequest, denied.Reason
	case errors.Is(err, svc.ErrMissingAttempt):
		return httperrors.ErrMissingState.HTTPStatus, httperrors.ErrMissingState.Message
	case errors.Is(err, svc.ErrStateMismatch):
		return httperrors.ErrStateMismatch.HTTPStatus, httperrors.ErrStateMismatch.Message
	case errors.Is(err, svc.ErrMissingCode):
		return httperrors.ErrUnknown.HTTPStatus, httperrors.ErrUnknown.Message
	case errors.As(err, &statusErr):
		return http.StatusBadGateway, "Could not verify login from GitHub: " + statusErr.Body
	case errors.Is(err, github.ErrDecodeFailed):
		return http.StatusBadGateway, "Error parsing response body from GitHub"
	case errors.As(err, &oauthErr):
		if oauthErr.Description != "" {
			return http.StatusBadGateway, "Login failed: " + oauthErr.Description
		}
		return http.StatusBadGateway, "Login failed"
	case errors.Is(err, svc.ErrFinalizeFailed):
		return httperrors.ErrServiceUnavailable.HTTPStatus, httperrors.ErrServiceUnavailable.Message
	default:
		return httperrors.ErrLoginFailed.HTTPStatus, httperrors.ErrLoginFailed.Message
	}
}
