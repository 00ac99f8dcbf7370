package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/compasshq/websignin/internal/cache"
)

func newTestManager() *Manager {
	return NewManager(cache.NewMemory(""), Config{TTL: time.Minute})
}

func TestLoadMissingYieldsEmptyState(t *testing.T) {
	m := newTestManager()
	st, err := m.Load(context.Background(), "nope")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.Attempt != nil || st.Authenticated() {
		t.Fatalf("expected blank state, got %+v", st)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	att := &Attempt{
		State:                 "s123",
		Me:                    "https://alice.example/",
		Flow:                  FlowIndieAuth,
		AuthorizationEndpoint: "https://auth.example/authorize",
	}
	if err := m.Save(ctx, "sid1", &State{Attempt: att}); err != nil {
		t.Fatalf("save: %v", err)
	}

	st, err := m.Load(ctx, "sid1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.Attempt == nil || st.Attempt.State != "s123" || st.Attempt.Flow != FlowIndieAuth {
		t.Fatalf("attempt did not round-trip: %+v", st.Attempt)
	}
	if st.Attempt.TokenEndpoint != "" {
		t.Fatalf("token endpoint should be empty, got %q", st.Attempt.TokenEndpoint)
	}
}

func TestSaveIsFullOverwrite(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	if err := m.Save(ctx, "sid1", &State{Attempt: &Attempt{State: "s", Me: "https://a.example/", Flow: FlowIndieAuth}}); err != nil {
		t.Fatalf("save attempt: %v", err)
	}

	// Finalize: a fresh state replaces everything, not a merge.
	if err := m.Save(ctx, "sid1", &State{Me: "https://a.example/", UserID: "u1"}); err != nil {
		t.Fatalf("save session: %v", err)
	}

	st, err := m.Load(ctx, "sid1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.Attempt != nil {
		t.Fatalf("attempt survived finalize: %+v", st.Attempt)
	}
	if !st.Authenticated() {
		t.Fatalf("expected authenticated state, got %+v", st)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	if err := m.Save(ctx, "sid1", &State{Me: "https://a.example/", UserID: "u1"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := m.Clear(ctx, "sid1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	st, _ := m.Load(ctx, "sid1")
	if st.Authenticated() {
		t.Fatal("session survived clear")
	}
}

func TestEnsureSessionMintsCookieOnce(t *testing.T) {
	m := newTestManager()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	sid := m.EnsureSession(w, r)
	if sid == "" {
		t.Fatal("no sid minted")
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != sid {
		t.Fatalf("expected sid cookie, got %+v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Fatal("sid cookie must be HttpOnly")
	}

	// Second request with the cookie: same sid, no new cookie.
	w2 := httptest.NewRecorder()
	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(cookies[0])
	if got := m.EnsureSession(w2, r2); got != sid {
		t.Fatalf("sid changed: %q != %q", got, sid)
	}
	if len(w2.Result().Cookies()) != 0 {
		t.Fatal("cookie re-issued for existing session")
	}
}
