package auth

import (
	"errors"
	"net/http"
	"strings"

	httperrors "github.com/compasshq/websignin/internal/http/errors"
	svc "github.com/compasshq/websignin/internal/http/services/auth"
	"github.com/compasshq/websignin/internal/http/views"
	"github.com/compasshq/websignin/internal/observability/logger"
	"github.com/compasshq/websignin/internal/session"
)

// CallbackController handles the generic flow callback endpoint.
type CallbackController struct {
	service  svc.CallbackService
	sessions *session.Manager
}

// NewCallbackController creates a new CallbackController.
func NewCallbackController(service svc.CallbackService, sessions *session.Manager) *CallbackController {
	return &CallbackController{service: service, sessions: sessions}
}

// Callback handles GET /auth/callback
func (c *CallbackController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CallbackController.Callback"))

	q := r.URL.Query()
	result, err := c.service.Callback(ctx, svc.CallbackRequest{
		SessionID:     c.sessions.SessionID(r),
		State:         strings.TrimSpace(q.Get("state")),
		Code:          strings.TrimSpace(q.Get("code")),
		ProviderError: strings.TrimSpace(q.Get("error")),
	})
	if err != nil {
		log.Warn("callback failed", logger.Err(err))
		status, message := mapCallbackError(err)
		views.RenderError(w, status, message)
		return
	}

	log.Debug("callback completed", logger.Me(result.Me))
	http.Redirect(w, r, "/", http.StatusFound)
}

// mapCallbackError maps a generic-flow service error to the page shown
// to the user.
func mapCallbackError(err error) (status int, message string) {
	var denied *svc.ProviderDeniedError
	switch {
	case errors.As(err, &denied):
		return http.StatusBadRequest, denied.Reason
	case errors.Is(err, svc.ErrMissingAttempt):
		return httperrors.ErrMissingState.HTTPStatus, httperrors.ErrMissingState.Message
	case errors.Is(err, svc.ErrStateMismatch):
		return httperrors.ErrStateMismatch.HTTPStatus, httperrors.ErrStateMismatch.Message
	case errors.Is(err, svc.ErrMissingCode),
		errors.Is(err, svc.ErrExchangeFailed),
		errors.Is(err, svc.ErrMissingIdentity):
		return httperrors.ErrUnknown.HTTPStatus, httperrors.ErrUnknown.Message
	case errors.Is(err, svc.ErrFinalizeFailed):
		return httperrors.ErrServiceUnavailable.HTTPStatus, httperrors.ErrServiceUnavailable.Message
	default:
		return httperrors.ErrUnknown.HTTPStatus, httperrors.ErrUnknown.Message
	}
}
