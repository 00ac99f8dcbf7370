package auth

import (
	"context"

	"github.com/compasshq/websignin/internal/metrics"
	"github.com/compasshq/websignin/internal/oauth/github"
	"github.com/compasshq/websignin/internal/observability/logger"
	tokens "github.com/compasshq/websignin/internal/security/token"
	"github.com/compasshq/websignin/internal/session"
)

// githubCallbackService implements GitHubCallbackService.
type githubCallbackService struct {
	sessions *session.Manager
	github   *github.OAuth
	fin      *finalizer
}

// NewGitHubCallbackService creates a new GitHubCallbackService.
func NewGitHubCallbackService(d Deps, fin *finalizer) GitHubCallbackService {
	return &githubCallbackService{
		sessions: d.Sessions,
		github:   d.GitHub,
		fin:      fin,
	}
}

// Callback validates the state token, trades the code for an access
// token, resolves the GitHub account, and finalizes the login under the
// synthetic https://github.com/<login> profile URL.
func (s *githubCallbackService) Callback(ctx context.Context, req CallbackRequest) (*CallbackResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth.github"))

	st, err := s.sessions.Load(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	att := st.Attempt
	if att == nil || att.State == "" || att.Me == "" {
		return nil, ErrMissingAttempt
	}
	if att.Flow != session.FlowGitHub {
		return nil, ErrMissingAttempt
	}

	if req.ProviderError != "" {
		s.fin.abandon(ctx, req.SessionID, st)
		metrics.LoginResults.WithLabelValues(string(session.FlowGitHub), "denied").Inc()
		return nil, &ProviderDeniedError{Reason: req.ProviderError}
	}

	if !tokens.ConstantTimeEqual(att.State, req.State) {
		log.Warn("state mismatch", logger.Me(att.Me))
		s.fin.abandon(ctx, req.SessionID, st)
		metrics.LoginResults.WithLabelValues(string(session.FlowGitHub), "state_mismatch").Inc()
		return nil, ErrStateMismatch
	}

	if req.Code == "" {
		s.fin.abandon(ctx, req.SessionID, st)
		metrics.LoginResults.WithLabelValues(string(session.FlowGitHub), "error").Inc()
		return nil, ErrMissingCode
	}

	tr, err := s.github.ExchangeCode(ctx, req.Code, att.State)
	if err != nil {
		log.Warn("github token exchange failed", logger.Me(att.Me), logger.Err(err))
		s.fin.abandon(ctx, req.SessionID, st)
		metrics.LoginResults.WithLabelValues(string(session.FlowGitHub), "error").Inc()
		return nil, err
	}

	info, err := s.github.GetUserInfo(ctx, tr.AccessToken)
	if err != nil {
		log.Warn("github user fetch failed", logger.Me(att.Me), logger.Err(err))
		s.fin.abandon(ctx, req.SessionID, st)
		metrics.LoginResults.WithLabelValues(string(session.FlowGitHub), "error").Inc()
		return nil, err
	}

	me := github.ProfileURL(info.Login)

	res, err := s.fin.finalize(ctx, req.SessionID, me)
	if err != nil {
		metrics.LoginResults.WithLabelValues(string(session.FlowGitHub), "error").Inc()
		return nil, err
	}
	metrics.LoginResults.WithLabelValues(string(session.FlowGitHub), "success").Inc()
	return res, nil
}
