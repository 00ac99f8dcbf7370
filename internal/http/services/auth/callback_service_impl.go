package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/compasshq/websignin/internal/indieauth"
	"github.com/compasshq/websignin/internal/metrics"
	"github.com/compasshq/websignin/internal/observability/logger"
	tokens "github.com/compasshq/websignin/internal/security/token"
	"github.com/compasshq/websignin/internal/session"
)

// callbackService implements CallbackService for the generic flow.
type callbackService struct {
	sessions            *session.Manager
	indieauth           *indieauth.Client
	defaultAuthEndpoint string
	fin                 *finalizer
}

// NewCallbackService creates a new CallbackService.
func NewCallbackService(d Deps, fin *finalizer) CallbackService {
	return &callbackService{
		sessions:            d.Sessions,
		indieauth:           d.IndieAuth,
		defaultAuthEndpoint: d.DefaultAuthEndpoint,
		fin:                 fin,
	}
}

// Callback validates the state token, exchanges the code against the
// attempt's endpoints, and finalizes the login.
func (s *callbackService) Callback(ctx context.Context, req CallbackRequest) (*CallbackResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth.callback"))

	st, err := s.sessions.Load(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	att := st.Attempt
	if att == nil || att.State == "" || att.Me == "" {
		return nil, ErrMissingAttempt
	}
	if att.Flow != session.FlowIndieAuth {
		// Attempt was issued for the other flow; its state token is not
		// valid here.
		return nil, ErrMissingAttempt
	}

	if req.ProviderError != "" {
		s.fin.abandon(ctx, req.SessionID, st)
		metrics.LoginResults.WithLabelValues(string(session.FlowIndieAuth), "denied").Inc()
		return nil, &ProviderDeniedError{Reason: req.ProviderError}
	}

	if !tokens.ConstantTimeEqual(att.State, req.State) {
		log.Warn("state mismatch", logger.Me(att.Me))
		s.fin.abandon(ctx, req.SessionID, st)
		metrics.LoginResults.WithLabelValues(string(session.FlowIndieAuth), "state_mismatch").Inc()
		return nil, ErrStateMismatch
	}

	if req.Code == "" {
		s.fin.abandon(ctx, req.SessionID, st)
		metrics.LoginResults.WithLabelValues(string(session.FlowIndieAuth), "error").Inc()
		return nil, ErrMissingCode
	}

	var v *indieauth.Verification
	if att.TokenEndpoint != "" {
		v, err = s.indieauth.RedeemCode(ctx, att.TokenEndpoint, req.Code, att.Me, req.State)
	} else {
		// Verify-only variant: no token endpoint was discovered, so the
		// authorization endpoint (or the configured default) checks the code.
		authEndpoint := att.AuthorizationEndpoint
		if authEndpoint == "" {
			authEndpoint = s.defaultAuthEndpoint
		}
		v, err = s.indieauth.VerifyCode(ctx, authEndpoint, req.Code, att.Me, req.State)
	}
	if err != nil {
		log.Warn("code exchange failed", logger.Me(att.Me), logger.Err(err))
		s.fin.abandon(ctx, req.SessionID, st)
		metrics.LoginResults.WithLabelValues(string(session.FlowIndieAuth), "error").Inc()
		if errors.Is(err, indieauth.ErrMissingIdentity) {
			return nil, fmt.Errorf("%w: %v", ErrMissingIdentity, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	me, err := indieauth.NormalizeMeURL(v.Me)
	if err != nil {
		log.Warn("endpoint returned unusable identity", logger.String("me", v.Me), logger.Err(err))
		s.fin.abandon(ctx, req.SessionID, st)
		metrics.LoginResults.WithLabelValues(string(session.FlowIndieAuth), "error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrMissingIdentity, err)
	}

	res, err := s.fin.finalize(ctx, req.SessionID, me)
	if err != nil {
		metrics.LoginResults.WithLabelValues(string(session.FlowIndieAuth), "error").Inc()
		return nil, err
	}
	metrics.LoginResults.WithLabelValues(string(session.FlowIndieAuth), "success").Inc()
	return res, nil
}
