// Package indieauth implements the relying-party side of web sign-in:
// profile URL normalization, endpoint discovery, authorization URL
// construction and authorization-code redemption.
package indieauth

import (
	"errors"
	"net/url"
	"strings"
)

// ErrInvalidProfileURL marks input that cannot be used as an identity.
var ErrInvalidProfileURL = errors.New("indieauth: invalid profile URL")

// NormalizeMeURL canonicalizes a user-supplied profile URL.
//
// Rules: a missing scheme defaults to http, scheme and host are lowercased,
// an empty path becomes "/", the fragment is dropped. Only http and https
// URLs with a host are accepted. Normalization is idempotent.
func NormalizeMeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidProfileURL
	}

	// Users type bare domains; default the scheme like the classic clients do.
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrInvalidProfileURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidProfileURL
	}
	if u.Host == "" {
		return "", ErrInvalidProfileURL
	}

	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	u.Fragment = ""

	return u.String(), nil
}
