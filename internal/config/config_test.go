package config

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func load(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	// Point at a missing .env so the working directory never leaks in.
	args = append([]string{"-env", filepath.Join(t.TempDir(), "missing.env")}, args...)
	return Load(args, &bytes.Buffer{})
}

func TestDefaults(t *testing.T) {
	cfg, err := load(t)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.UpstreamURL != "http://localhost:8000/api/v1" {
		t.Errorf("UpstreamURL = %q", cfg.UpstreamURL)
	}
	if cfg.SessionLifetime != 7*24*time.Hour {
		t.Errorf("SessionLifetime = %v", cfg.SessionLifetime)
	}
	if cfg.ListTTL != 30*time.Second || cfg.DirectoryTTL != 5*time.Minute {
		t.Errorf("TTLs = %v, %v", cfg.ListTTL, cfg.DirectoryTTL)
	}
	if cfg.SecureCookies {
		t.Error("SecureCookies should default to false")
	}
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("STOCKMGTR_UPSTREAM_URL", "https://stock.example.com/api/v1")
	t.Setenv("STOCKMGTR_LIST_TTL", "5s")
	t.Setenv("STOCKMGTR_SECURE_COOKIES", "true")

	cfg, err := load(t)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UpstreamURL != "https://stock.example.com/api/v1" {
		t.Errorf("UpstreamURL = %q", cfg.UpstreamURL)
	}
	if cfg.ListTTL != 5*time.Second {
		t.Errorf("ListTTL = %v", cfg.ListTTL)
	}
	if !cfg.SecureCookies {
		t.Error("SecureCookies = false")
	}
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("STOCKMGTR_ADDR", ":9000")

	cfg, err := load(t, "-a", ":9100", "-db", "/tmp/s.db", "-u", "http://10.0.0.5:8000/api/v1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9100" {
		t.Errorf("Addr = %q, want flag value", cfg.Addr)
	}
	if cfg.DBPath != "/tmp/s.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.UpstreamURL != "http://10.0.0.5:8000/api/v1" {
		t.Errorf("UpstreamURL = %q", cfg.UpstreamURL)
	}
}

func TestDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, "test.env")
	if err := os.WriteFile(env, []byte("STOCKMGTR_LOGIN_BURST=9\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("STOCKMGTR_LOGIN_BURST") })

	cfg, err := Load([]string{"-e", env}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LoginBurst != 9 {
		t.Errorf("LoginBurst = %d, want 9", cfg.LoginBurst)
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stockmgtr.yaml")
	body := "addr: \":7000\"\nsession_lifetime: 12h\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := load(t, "-config", path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":7000" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.SessionLifetime != 12*time.Hour {
		t.Errorf("SessionLifetime = %v", cfg.SessionLifetime)
	}
}

func TestInvalidUpstreamURL(t *testing.T) {
	for _, u := range []string{"/api/v1", "ftp://host/api", "not a url"} {
		if _, err := load(t, "-upstream", u); err == nil {
			t.Errorf("Load(-upstream %q) succeeded, want error", u)
		}
	}
}

func TestHelp(t *testing.T) {
	var out bytes.Buffer
	_, err := Load([]string{"-h"}, &out)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("err = %v, want flag.ErrHelp", err)
	}
	if !strings.Contains(out.String(), "Usage: stockmgtr") {
		t.Errorf("usage not printed: %q", out.String())
	}
}

func TestUnexpectedArgument(t *testing.T) {
	if _, err := load(t, "extra"); err == nil {
		t.Fatal("expected error for positional argument")
	}
}
