// Package session manages browser sessions for the sign-in flows.
//
// A session is a small JSON record in the cache, keyed by an opaque sid
// cookie. It carries at most one in-flight login attempt and, after a
// successful login, the authenticated identity.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/compasshq/websignin/internal/cache"
)

// Flow discriminates the two login protocols. It is chosen once at start
// and carried on the attempt so callback handling cannot diverge from the
// path selected at issuance.
type Flow string

const (
	FlowIndieAuth Flow = "indieauth"
	FlowGitHub    Flow = "github"
)

// Attempt is the transient state of one login attempt. It exists only
// between start and the first terminal callback.
type Attempt struct {
	State string `json:"state"`
	Me    string `json:"me"`
	Flow  Flow   `json:"flow"`

	// Discovered endpoints; only set on the indieauth flow, and either may
	// be empty when discovery found nothing.
	AuthorizationEndpoint string `json:"authorization_endpoint,omitempty"`
	TokenEndpoint         string `json:"token_endpoint,omitempty"`
}

// State is everything stored for one browser session.
type State struct {
	Attempt *Attempt `json:"attempt,omitempty"`
	Me      string   `json:"me,omitempty"`
	UserID  string   `json:"user_id,omitempty"`
}

// Authenticated reports whether the session carries a logged-in identity.
func (s *State) Authenticated() bool {
	return s != nil && s.Me != "" && s.UserID != ""
}

// Config controls the sid cookie and the session lifetime.
type Config struct {
	CookieName string
	Domain     string
	SameSite   string // "Lax" | "Strict" | "None"
	Secure     bool
	TTL        time.Duration
}

// Manager persists session state in the cache and manages the sid cookie.
type Manager struct {
	cache cache.Client
	cfg   Config
}

func NewManager(c cache.Client, cfg Config) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = "sid"
	}
	if cfg.TTL == 0 {
		cfg.TTL = 12 * time.Hour
	}
	return &Manager{cache: c, cfg: cfg}
}

func (m *Manager) key(sid string) string { return "sess:" + sid }

// Load returns the state for sid. A missing record yields an empty state,
// never an error: every visitor implicitly has a blank session.
func (m *Manager) Load(ctx context.Context, sid string) (*State, error) {
	if sid == "" {
		return &State{}, nil
	}
	raw, err := m.cache.Get(ctx, m.key(sid))
	if cache.IsNotFound(err) {
		return &State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: load: %w", err)
	}
	var st State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		// Corrupt record: start over with a blank session.
		return &State{}, nil
	}
	return &st, nil
}

// Save overwrites the whole session record. Callers that need
// flush-then-set semantics save a freshly constructed State.
func (m *Manager) Save(ctx context.Context, sid string, st *State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	return m.cache.Set(ctx, m.key(sid), string(raw), m.cfg.TTL)
}

// Clear removes the session record entirely.
func (m *Manager) Clear(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	return m.cache.Delete(ctx, m.key(sid))
}

// SessionID reads the sid cookie, returning "" when absent.
func (m *Manager) SessionID(r *http.Request) string {
	ck, err := r.Cookie(m.cfg.CookieName)
	if err != nil || ck == nil {
		return ""
	}
	return strings.TrimSpace(ck.Value)
}

// EnsureSession returns the request's sid, minting one and setting the
// cookie when the browser has none yet.
func (m *Manager) EnsureSession(w http.ResponseWriter, r *http.Request) string {
	if sid := m.SessionID(r); sid != "" {
		return sid
	}
	sid := uuid.NewString()
	http.SetCookie(w, m.cookie(sid, int(m.cfg.TTL.Seconds())))
	return sid
}

// DropCookie sets a deletion cookie so the browser forgets the sid.
func (m *Manager) DropCookie(w http.ResponseWriter) {
	http.SetCookie(w, m.cookie("", -1))
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Domain:   m.cfg.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: parseSameSite(m.cfg.SameSite),
	}
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
