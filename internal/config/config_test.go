package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ADDR", "DATABASE_URL",
		"MEALPRICE_ADDR", "MEALPRICE_DATABASE_URL", "MEALPRICE_SESSION_TTL",
		"MEALPRICE_JWT_SECRET", "MEALPRICE_JWT_TTL", "MEALPRICE_RATES",
		"MEALPRICE_OIDC_ISSUER", "MEALPRICE_OIDC_CLIENT_ID",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Addr != ":8080" {
		t.Errorf("expected default addr, got %q", c.Addr)
	}
	if c.DatabaseURL != "" {
		t.Errorf("expected in-memory default, got %q", c.DatabaseURL)
	}
	if c.SessionTTL != 24*time.Hour || c.JWT.TTL != 720*time.Hour {
		t.Errorf("unexpected ttls: %s %s", c.SessionTTL, c.JWT.TTL)
	}
	if c.OIDC.Enabled() {
		t.Error("expected oidc disabled")
	}
	if len(c.Rates) != 0 {
		t.Errorf("expected no rates, got %v", c.Rates)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
addr: ":9090"
session_ttl: 2h
jwt:
  secret: from-file
oidc:
  issuer: https://id.example.com
  client_id: mealprice
rates:
  GBP_EUR: 1.17
  EUR_GBP: "0.85"
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Addr != ":9090" || c.SessionTTL != 2*time.Hour || c.JWT.Secret != "from-file" {
		t.Errorf("unexpected config: %+v", c)
	}
	if !c.OIDC.Enabled() {
		t.Error("expected oidc enabled")
	}
	// viper lower-cases keys
	if c.Rates["gbp_eur"] != "1.17" || c.Rates["eur_gbp"] != "0.85" {
		t.Errorf("unexpected rates: %v", c.Rates)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "addr: \":9090\"\njwt:\n  secret: from-file\n")
	t.Setenv("ADDR", ":7070")
	t.Setenv("DATABASE_URL", "postgres://localhost/meals")
	t.Setenv("MEALPRICE_JWT_SECRET", "from-env")
	t.Setenv("MEALPRICE_RATES", "GBP_EUR=1.2, EUR_GBP=0.8")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Addr != ":7070" {
		t.Errorf("expected plain ADDR to win, got %q", c.Addr)
	}
	if c.DatabaseURL != "postgres://localhost/meals" {
		t.Errorf("unexpected database url %q", c.DatabaseURL)
	}
	if c.JWT.Secret != "from-env" {
		t.Errorf("expected env secret, got %q", c.JWT.Secret)
	}
	if c.Rates["GBP_EUR"] != "1.2" || c.Rates["EUR_GBP"] != "0.8" {
		t.Errorf("unexpected rates: %v", c.Rates)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "non-positive session ttl", body: "session_ttl: 0s\n"},
		{name: "bad duration", body: "jwt:\n  ttl: soon\n"},
		{name: "malformed rates", env: map[string]string{"MEALPRICE_RATES": "GBP_EUR"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(writeConfig(t, tc.body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	t.Run("missing explicit file", func(t *testing.T) {
		clearEnv(t)
		if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Fatal("expected error")
		}
	})
}
