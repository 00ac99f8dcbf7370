package indieauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDiscoverFromHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<!doctype html><html><head>
			<link rel="authorization_endpoint" href="https://auth.example/authorize">
			<link rel="token_endpoint" href="/token">
		</head><body></body></html>`))
	}))
	defer srv.Close()

	eps, err := NewHTTPDiscoverer(srv.Client()).Discover(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if eps.Authorization != "https://auth.example/authorize" {
		t.Fatalf("authorization endpoint = %q", eps.Authorization)
	}
	if want := srv.URL + "/token"; eps.Token != want {
		t.Fatalf("token endpoint = %q, want %q (relative href must resolve)", eps.Token, want)
	}
}

func TestDiscoverLinkHeaderWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Link", `<https://hdr.example/auth>; rel="authorization_endpoint"`)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head>
			<link rel="authorization_endpoint" href="https://body.example/auth">
		</head></html>`))
	}))
	defer srv.Close()

	eps, err := NewHTTPDiscoverer(srv.Client()).Discover(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if eps.Authorization != "https://hdr.example/auth" {
		t.Fatalf("header must take precedence, got %q", eps.Authorization)
	}
}

func TestDiscoverToleratesAbsentEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>nothing here</title></head></html>`))
	}))
	defer srv.Close()

	eps, err := NewHTTPDiscoverer(srv.Client()).Discover(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if eps.Authorization != "" || eps.Token != "" {
		t.Fatalf("expected no endpoints, got %+v", eps)
	}
}

func TestDiscoverAuthorizationOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head>
			<a rel="authorization_endpoint" href="https://auth.example/only">auth</a>
		</head></html>`))
	}))
	defer srv.Close()

	eps, err := NewHTTPDiscoverer(srv.Client()).Discover(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if eps.Authorization != "https://auth.example/only" || eps.Token != "" {
		t.Fatalf("got %+v", eps)
	}
}

func TestDiscoverNon200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	if _, err := NewHTTPDiscoverer(srv.Client()).Discover(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error on non-2xx")
	}
}

func TestParseLinkHeader(t *testing.T) {
	links := parseLinkHeader(`<https://a.example/auth>; rel="authorization_endpoint", </tok>; rel="token_endpoint"`)
	if len(links) != 2 {
		t.Fatalf("got %d links", len(links))
	}
	if links[0].target != "https://a.example/auth" || links[0].rels[0] != "authorization_endpoint" {
		t.Fatalf("first link: %+v", links[0])
	}
	if links[1].target != "/tok" || links[1].rels[0] != "token_endpoint" {
		t.Fatalf("second link: %+v", links[1])
	}
}
