package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/compasshq/websignin/internal/cache"
	svc "github.com/compasshq/websignin/internal/http/services/auth"
	"github.com/compasshq/websignin/internal/oauth/github"
	"github.com/compasshq/websignin/internal/session"
)

type stubStart struct {
	result *svc.StartResult
	err    error
	gotMe  string
	gotSID string
}

func (s *stubStart) Start(ctx context.Context, req svc.StartRequest) (*svc.StartResult, error) {
	s.gotMe = req.Me
	s.gotSID = req.SessionID
	return s.result, s.err
}

type stubCallback struct {
	result *svc.CallbackResult
	err    error
	gotReq svc.CallbackRequest
}

func (s *stubCallback) Callback(ctx context.Context, req svc.CallbackRequest) (*svc.CallbackResult, error) {
	s.gotReq = req
	return s.result, s.err
}

type stubLogout struct {
	gotSID string
}

func (s *stubLogout) Logout(ctx context.Context, sessionID string) error {
	s.gotSID = sessionID
	return nil
}

func newSessions(t *testing.T) *session.Manager {
	t.Helper()
	c, err := cache.New(cache.Config{Kind: "memory"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return session.NewManager(c, session.Config{})
}

func TestStartRedirects(t *testing.T) {
	sessions := newSessions(t)
	stub := &stubStart{result: &svc.StartResult{RedirectURL: "https://auth.example/authorize?x=1"}}
	ctrl := NewStartController(stub, sessions)

	req := httptest.NewRequest(http.MethodGet, "/auth/start?me=alice.example", nil)
	rec := httptest.NewRecorder()
	ctrl.Start(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "https://auth.example/authorize?x=1", rec.Header().Get("Location"))
	require.Equal(t, "alice.example", stub.gotMe)
	require.NotEmpty(t, stub.gotSID)

	// First visit mints a session cookie.
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "sid", cookies[0].Name)
	require.True(t, cookies[0].HttpOnly)
}

func TestStartInvalidURLRendersErrorPage(t *testing.T) {
	sessions := newSessions(t)
	stub := &stubStart{err: svc.ErrInvalidProfileURL}
	ctrl := NewStartController(stub, sessions)

	req := httptest.NewRequest(http.MethodGet, "/auth/start?me=%3A%3Abad%3A%3A", nil)
	rec := httptest.NewRecorder()
	ctrl.Start(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid URL")
}

func TestCallbackSuccessRedirectsHome(t *testing.T) {
	sessions := newSessions(t)
	stub := &stubCallback{result: &svc.CallbackResult{Me: "https://alice.example/", UserID: "u1"}}
	ctrl := NewCallbackController(stub, sessions)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c0de&state=st4te", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "s1"})
	rec := httptest.NewRecorder()
	ctrl.Callback(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	require.Equal(t, "s1", stub.gotReq.SessionID)
	require.Equal(t, "c0de", stub.gotReq.Code)
	require.Equal(t, "st4te", stub.gotReq.State)
}

func TestCallbackErrorPages(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"missing attempt", svc.ErrMissingAttempt, http.StatusBadRequest, "Missing state information. Start over."},
		{"state mismatch", svc.ErrStateMismatch, http.StatusBadRequest, "State did not match. Start over."},
		{"exchange failed", svc.ErrExchangeFailed, http.StatusBadRequest, "An unknown error occurred"},
		{"missing identity", svc.ErrMissingIdentity, http.StatusBadRequest, "An unknown error occurred"},
		{"provider denied", &svc.ProviderDeniedError{Reason: "access_denied"}, http.StatusBadRequest, "access_denied"},
		{"finalize failed", svc.ErrFinalizeFailed, http.StatusServiceUnavailable, "temporarily unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sessions := newSessions(t)
			ctrl := NewCallbackController(&stubCallback{err: tc.err}, sessions)

			req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=x&state=y", nil)
			rec := httptest.NewRecorder()
			ctrl.Callback(rec, req)

			require.Equal(t, tc.status, rec.Code)
			require.Contains(t, rec.Body.String(), tc.message)
		})
	}
}

func TestGitHubErrorPages(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		message string
	}{
		{"status error", &github.StatusError{Status: 502, Body: "bad gateway"}, "Could not verify login from GitHub: bad gateway"},
		{"decode error", github.ErrDecodeFailed, "Error parsing response body from GitHub"},
		{"oauth error with description", &github.OAuthError{Code: "bad_verification_code", Description: "The code passed is incorrect or expired."}, "Login failed: The code passed is incorrect or expired."},
		{"oauth error bare", &github.OAuthError{}, "Login failed"},
		{"user fetch failed", errors.New("github api error: status 401"), "Login failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sessions := newSessions(t)
			ctrl := NewGitHubController(&stubCallback{err: tc.err}, sessions)

			req := httptest.NewRequest(http.MethodGet, "/auth/github?code=x&state=y", nil)
			rec := httptest.NewRecorder()
			ctrl.Callback(rec, req)

			require.GreaterOrEqual(t, rec.Code, 400)
			require.Contains(t, rec.Body.String(), tc.message)
		})
	}
}

func TestGitHubSuccessRedirectsHome(t *testing.T) {
	sessions := newSessions(t)
	stub := &stubCallback{result: &svc.CallbackResult{Me: "https://github.com/octocat", UserID: "u1"}}
	ctrl := NewGitHubController(stub, sessions)

	req := httptest.NewRequest(http.MethodGet, "/auth/github?code=c0de&state=st4te", nil)
	rec := httptest.NewRecorder()
	ctrl.Callback(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
}

func TestLogoutClearsSessionAndCookie(t *testing.T) {
	sessions := newSessions(t)
	stub := &stubLogout{}
	ctrl := NewLogoutController(stub, sessions)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "s1"})
	rec := httptest.NewRecorder()
	ctrl.Logout(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	require.Equal(t, "s1", stub.gotSID)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, -1, cookies[0].MaxAge)
	require.Empty(t, cookies[0].Value)
}

func TestHomeRendersSignInForm(t *testing.T) {
	sessions := newSessions(t)
	ctrl := NewHomeController(sessions)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	ctrl.Home(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `name="me"`)
}

func TestHomeRendersSignedInState(t *testing.T) {
	sessions := newSessions(t)
	require.NoError(t, sessions.Save(context.Background(), "s1", &session.State{
		Me:     "https://alice.example/",
		UserID: "u1",
	}))
	ctrl := NewHomeController(sessions)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "s1"})
	rec := httptest.NewRecorder()
	ctrl.Home(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "https://alice.example/")
	require.Contains(t, body, "Sign Out")
	require.False(t, strings.Contains(body, `name="me"`))
}
