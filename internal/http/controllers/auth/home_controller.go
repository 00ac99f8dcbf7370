package auth

import (
	"net/http"

	"github.com/compasshq/websignin/internal/http/views"
	"github.com/compasshq/websignin/internal/observability/logger"
	"github.com/compasshq/websignin/internal/session"
)

// HomeController renders the landing page: a sign-in form, or the
// signed-in identity when the session is authenticated.
type HomeController struct {
	sessions *session.Manager
}

func NewHomeController(sessions *session.Manager) *HomeController {
	return &HomeController{sessions: sessions}
}

// Home handles GET /
func (c *HomeController) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	st, err := c.sessions.Load(ctx, c.sessions.SessionID(r))
	if err != nil {
		logger.From(ctx).Warn("session load failed", logger.Err(err))
		st = &session.State{}
	}

	views.RenderSignIn(w, views.SignInData{
		Me:       st.Me,
		UserID:   st.UserID,
		SignedIn: st.Authenticated(),
	})
}
