package auth

import (
	"net/url"
	"strings"

	"github.com/compasshq/websignin/internal/session"
)

// SelectFlow decides which sub-protocol serves a normalized profile
// URL. GitHub profile pages cannot advertise endpoints, so URLs of the
// form https://github.com/<user> take the OAuth shortcut. Everything
// else goes through endpoint discovery.
func SelectFlow(me string) session.Flow {
	u, err := url.Parse(me)
	if err != nil {
		return session.FlowIndieAuth
	}
	if !strings.EqualFold(u.Hostname(), "github.com") {
		return session.FlowIndieAuth
	}
	seg := strings.TrimPrefix(u.Path, "/")
	if i := strings.Index(seg, "/"); i >= 0 {
		seg = seg[:i]
	}
	if seg == "" {
		return session.FlowIndieAuth
	}
	return session.FlowGitHub
}
