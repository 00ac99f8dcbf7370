package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/compasshq/websignin/internal/cache"
	authctrl "github.com/compasshq/websignin/internal/http/controllers/auth"
	healthctrl "github.com/compasshq/websignin/internal/http/controllers/health"
	authsvc "github.com/compasshq/websignin/internal/http/services/auth"
	"github.com/compasshq/websignin/internal/indieauth"
	"github.com/compasshq/websignin/internal/oauth/github"
	"github.com/compasshq/websignin/internal/session"
	"github.com/compasshq/websignin/internal/store/memory"
)

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	c, err := cache.New(cache.Config{Kind: "memory"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	sessions := session.NewManager(c, session.Config{})
	users := memory.New()
	services := authsvc.NewServices(authsvc.Deps{
		Sessions:            sessions,
		Users:               users,
		Discoverer:          indieauth.NewHTTPDiscoverer(nil),
		IndieAuth:           indieauth.NewClient("https://broker.example/", "https://broker.example/auth/callback", nil),
		GitHub:              github.New("ghid", "ghsecret", nil),
		DefaultAuthEndpoint: "https://indieauth.example/auth",
	})

	return New(Deps{
		Auth:   authctrl.NewControllers(services, sessions),
		Health: healthctrl.NewControllers(users, c),
	})
}

func TestHealthRoutes(t *testing.T) {
	h := newHandler(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestMetricsRoute(t *testing.T) {
	h := newHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRoutesSetNoStore(t *testing.T) {
	h := newHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback", nil))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestRequestIDHeader(t *testing.T) {
	h := newHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "my-id")
	h.ServeHTTP(rec, req)
	require.Equal(t, "my-id", rec.Header().Get("X-Request-ID"))
}

func TestHomeRoute(t *testing.T) {
	h := newHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}
