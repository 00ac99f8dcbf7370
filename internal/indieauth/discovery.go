package indieauth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	relAuthorization = "authorization_endpoint"
	relToken         = "token_endpoint"

	maxDiscoveryBody = 1 << 20 // 1MB
)

// Endpoints are the advertised login endpoints of a profile URL.
// Either field may be empty when the document advertises nothing.
type Endpoints struct {
	Authorization string
	Token         string
}

// Discoverer resolves the login endpoints for a profile URL.
type Discoverer interface {
	Discover(ctx context.Context, profileURL string) (Endpoints, error)
}

// HTTPDiscoverer fetches the profile document and reads the advertised
// endpoints from HTTP Link headers first, then from HTML link/a rel
// attributes. Relative URLs are resolved against the final request URL
// (after redirects).
type HTTPDiscoverer struct {
	http *http.Client
}

func NewHTTPDiscoverer(hc *http.Client) *HTTPDiscoverer {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPDiscoverer{http: hc}
}

func (d *HTTPDiscoverer) Discover(ctx context.Context, profileURL string) (Endpoints, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, profileURL, nil)
	if err != nil {
		return Endpoints{}, fmt.Errorf("indieauth: discovery request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := d.http.Do(req)
	if err != nil {
		return Endpoints{}, fmt.Errorf("indieauth: discovery fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Endpoints{}, fmt.Errorf("indieauth: discovery fetch: status %d", resp.StatusCode)
	}

	base := resp.Request.URL

	var eps Endpoints
	// Link headers take precedence over the document body.
	for _, hdr := range resp.Header.Values("Link") {
		for _, l := range parseLinkHeader(hdr) {
			assignRel(&eps, l.rels, resolveRef(base, l.target))
		}
	}
	if eps.Authorization != "" && eps.Token != "" {
		return eps, nil
	}

	body := io.LimitReader(resp.Body, maxDiscoveryBody)
	if err := scanHTMLRels(body, base, &eps); err != nil {
		// A malformed body after usable headers is not fatal.
		return eps, nil
	}
	return eps, nil
}

// assignRel fills eps from a rel list, first value wins.
func assignRel(eps *Endpoints, rels []string, target string) {
	if target == "" {
		return
	}
	for _, rel := range rels {
		switch rel {
		case relAuthorization:
			if eps.Authorization == "" {
				eps.Authorization = target
			}
		case relToken:
			if eps.Token == "" {
				eps.Token = target
			}
		}
	}
}

func resolveRef(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	return u.String()
}

type linkValue struct {
	target string
	rels   []string
}

// parseLinkHeader parses an RFC 8288 Link header value. Only the rel
// parameter is of interest here.
func parseLinkHeader(v string) []linkValue {
	var out []linkValue
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if !strings.HasPrefix(part, "<") {
			continue
		}
		end := strings.Index(part, ">")
		if end < 0 {
			continue
		}
		lv := linkValue{target: part[1:end]}
		for _, param := range strings.Split(part[end+1:], ";") {
			param = strings.TrimSpace(param)
			if !strings.HasPrefix(strings.ToLower(param), "rel=") {
				continue
			}
			rel := strings.Trim(param[len("rel="):], `"`)
			lv.rels = strings.Fields(strings.ToLower(rel))
		}
		if len(lv.rels) > 0 {
			out = append(out, lv)
		}
	}
	return out
}

// scanHTMLRels walks the document looking for <link> and <a> elements
// carrying the endpoint rels.
func scanHTMLRels(r io.Reader, base *url.URL, eps *Endpoints) error {
	doc, err := html.Parse(r)
	if err != nil {
		return err
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "link" || n.Data == "a") {
			var rel, href string
			for _, a := range n.Attr {
				switch strings.ToLower(a.Key) {
				case "rel":
					rel = a.Val
				case "href":
					href = a.Val
				}
			}
			if rel != "" && href != "" {
				assignRel(eps, strings.Fields(strings.ToLower(rel)), resolveRef(base, href))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return nil
}
