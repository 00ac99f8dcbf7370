package auth

import (
	"net/http"

	svc "github.com/compasshq/websignin/internal/http/services/auth"
	"github.com/compasshq/websignin/internal/observability/logger"
	"github.com/compasshq/websignin/internal/session"
)

// LogoutController handles the logout endpoint.
type LogoutController struct {
	service  svc.LogoutService
	sessions *session.Manager
}

// NewLogoutController creates a new LogoutController.
func NewLogoutController(service svc.LogoutService, sessions *session.Manager) *LogoutController {
	return &LogoutController{service: service, sessions: sessions}
}

// Logout handles GET|POST /auth/logout
func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if sid := c.sessions.SessionID(r); sid != "" {
		if err := c.service.Logout(ctx, sid); err != nil {
			logger.From(ctx).Warn("logout failed", logger.Err(err))
		}
	}
	c.sessions.DropCookie(w)

	http.Redirect(w, r, "/", http.StatusFound)
}
