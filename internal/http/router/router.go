// Package router wires the HTTP routes.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authctrl "github.com/compasshq/websignin/internal/http/controllers/auth"
	healthctrl "github.com/compasshq/websignin/internal/http/controllers/health"
	mw "github.com/compasshq/websignin/internal/http/middlewares"
	"github.com/compasshq/websignin/internal/rate"
)

// Deps contains all dependencies for the router.
type Deps struct {
	Auth   *authctrl.Controllers
	Health *healthctrl.Controllers

	// Limiter guards the auth routes; nil disables rate limiting.
	Limiter rate.Limiter
}

// New builds the application handler.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithRecover(),
		mw.WithSecurityHeaders(),
	)

	r.Get("/", d.Auth.Home.Home)

	r.Route("/auth", func(r chi.Router) {
		r.Use(
			mw.WithNoStore(),
			mw.WithRateLimit(d.Limiter),
		)
		r.Get("/start", d.Auth.Start.Start)
		r.Get("/callback", d.Auth.Callback.Callback)
		r.Get("/github", d.Auth.GitHub.Callback)
		r.Get("/logout", d.Auth.Logout.Logout)
		r.Post("/logout", d.Auth.Logout.Logout)
	})

	r.Get("/healthz", d.Health.Healthz)
	r.Get("/readyz", d.Health.Readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
