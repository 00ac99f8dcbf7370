package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/compasshq/websignin/internal/indieauth"
	"github.com/compasshq/websignin/internal/metrics"
	"github.com/compasshq/websignin/internal/oauth/github"
	"github.com/compasshq/websignin/internal/observability/logger"
	tokens "github.com/compasshq/websignin/internal/security/token"
	"github.com/compasshq/websignin/internal/session"
)

// startService implements StartService.
type startService struct {
	sessions            *session.Manager
	discoverer          indieauth.Discoverer
	indieauth           *indieauth.Client
	github              *github.OAuth
	defaultAuthEndpoint string
}

// NewStartService creates a new StartService.
func NewStartService(d Deps) StartService {
	return &startService{
		sessions:            d.Sessions,
		discoverer:          d.Discoverer,
		indieauth:           d.IndieAuth,
		github:              d.GitHub,
		defaultAuthEndpoint: d.DefaultAuthEndpoint,
	}
}

// Start normalizes the profile URL, selects the flow, and stores the
// attempt in the session before handing back the redirect URL.
func (s *startService) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth.start"))

	me, err := indieauth.NormalizeMeURL(req.Me)
	if err != nil {
		log.Warn("invalid profile URL", logger.String("input", req.Me))
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfileURL, err)
	}

	state, err := tokens.NewState()
	if err != nil {
		log.Error("state generation failed", logger.Err(err))
		return nil, err
	}

	st, err := s.sessions.Load(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	flow := SelectFlow(me)
	var redirectURL string

	switch flow {
	case session.FlowGitHub:
		redirectURL, err = s.github.AuthURL(state)
		if err != nil {
			return nil, err
		}
		st.Attempt = &session.Attempt{
			State: state,
			Me:    me,
			Flow:  session.FlowGitHub,
		}

	default:
		discoverStart := time.Now()
		eps, derr := s.discoverer.Discover(ctx, me)
		metrics.DiscoveryLatency.Observe(float64(time.Since(discoverStart).Milliseconds()))
		if derr != nil {
			// Unreachable site: fall back to the default endpoint, the
			// same as a site that advertises nothing.
			log.Warn("endpoint discovery failed", logger.Me(me), logger.Err(derr))
			eps = indieauth.Endpoints{}
		}

		st.Attempt = &session.Attempt{
			State:                 state,
			Me:                    me,
			Flow:                  session.FlowIndieAuth,
			AuthorizationEndpoint: eps.Authorization,
			TokenEndpoint:         eps.Token,
		}

		authEndpoint := eps.Authorization
		if authEndpoint == "" {
			authEndpoint = s.defaultAuthEndpoint
		}
		redirectURL, err = s.indieauth.BuildAuthorizationURL(authEndpoint, me, state)
		if err != nil {
			return nil, err
		}
	}

	if err := s.sessions.Save(ctx, req.SessionID, st); err != nil {
		return nil, err
	}

	metrics.LoginAttempts.WithLabelValues(string(flow)).Inc()
	log.Info("sign-in started", logger.Me(me), logger.Flow(string(flow)))

	return &StartResult{RedirectURL: redirectURL, Flow: flow}, nil
}
