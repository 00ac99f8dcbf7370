// Package auth contains controllers for the sign-in endpoints.
package auth

import (
	svc "github.com/compasshq/websignin/internal/http/services/auth"
	"github.com/compasshq/websignin/internal/session"
)

// Controllers groups all controllers of the auth domain.
type Controllers struct {
	Home     *HomeController
	Start    *StartController
	Callback *CallbackController
	GitHub   *GitHubController
	Logout   *LogoutController
}

// NewControllers creates the auth controllers aggregator.
func NewControllers(s svc.Services, sessions *session.Manager) *Controllers {
	return &Controllers{
		Home:     NewHomeController(sessions),
		Start:    NewStartController(s.Start, sessions),
		Callback: NewCallbackController(s.Callback, sessions),
		GitHub:   NewGitHubController(s.GitHub, sessions),
		Logout:   NewLogoutController(s.Logout, sessions),
	}
}
