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

// StartController handles the sign-in start endpoint.
type StartController struct {
	service  svc.StartService
	sessions *session.Manager
}

// NewStartController creates a new StartController.
func NewStartController(service svc.StartService, sessions *session.Manager) *StartController {
	return &StartController{service: service, sessions: sessions}
}

// Start handles GET /auth/start
func (c *StartController) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("StartController.Start"))

	me := strings.TrimSpace(r.URL.Query().Get("me"))
	sid := c.sessions.EnsureSession(w, r)

	result, err := c.service.Start(ctx, svc.StartRequest{SessionID: sid, Me: me})
	if err != nil {
		if errors.Is(err, svc.ErrInvalidProfileURL) {
			views.RenderError(w, http.StatusBadRequest, httperrors.ErrInvalidURL.Message)
			return
		}
		log.Error("start failed", logger.Err(err))
		views.RenderError(w, http.StatusServiceUnavailable, httperrors.ErrServiceUnavailable.Message)
		return
	}

	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}
