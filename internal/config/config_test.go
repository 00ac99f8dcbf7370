package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  base_url: https://login.example/
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Addr != ":8080" {
		t.Fatalf("addr = %q", c.Server.Addr)
	}
	if c.Auth.DefaultAuthEndpoint != "https://indieauth.com/auth" {
		t.Fatalf("default auth endpoint = %q", c.Auth.DefaultAuthEndpoint)
	}
	if c.Cache.Kind != "memory" || c.Storage.Driver != "memory" {
		t.Fatalf("backends = %q/%q", c.Cache.Kind, c.Storage.Driver)
	}
	if c.SessionTTL() != 12*time.Hour {
		t.Fatalf("session ttl = %v", c.SessionTTL())
	}
}

func TestLoadMissingFileUsesEnv(t *testing.T) {
	t.Setenv("BASE_URL", "https://login.example/")
	t.Setenv("GITHUB_ID", "ghid")

	c, err := Load(filepath.Join(t.TempDir(), "nosuch.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Auth.GitHub.ClientID != "ghid" {
		t.Fatalf("github client id = %q", c.Auth.GitHub.ClientID)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  base_url: https://yaml.example/
auth:
  default_auth_endpoint: https://yaml-auth.example/auth
`)
	t.Setenv("BASE_URL", "https://env.example/")
	t.Setenv("DEFAULT_AUTH_ENDPOINT", "https://env-auth.example/auth")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.BaseURL != "https://env.example/" {
		t.Fatalf("base url = %q", c.Server.BaseURL)
	}
	if c.Auth.DefaultAuthEndpoint != "https://env-auth.example/auth" {
		t.Fatalf("default auth endpoint = %q", c.Auth.DefaultAuthEndpoint)
	}
}

func TestValidateRequiresBaseURL(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9999"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing base_url")
	}
}

func TestValidatePostgresNeedsDSN(t *testing.T) {
	path := writeConfig(t, `
server:
  base_url: https://login.example/
storage:
  driver: postgres
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for postgres without dsn")
	}
}

func TestRedirectURI(t *testing.T) {
	path := writeConfig(t, `
server:
  base_url: https://login.example
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := c.RedirectURI(); got != "https://login.example/auth/callback" {
		t.Fatalf("redirect uri = %q", got)
	}
	if got := c.BaseURL(); got != "https://login.example/" {
		t.Fatalf("base url = %q", got)
	}
}
