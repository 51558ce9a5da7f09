package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("DB_DSN", "postgres://localhost/app")
	t.Setenv("JWT_ISSUER", "stocksim")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_TTL", "24h")
	t.Setenv("QUOTE_API_KEY", "pk_test")
}

func TestLoadAppliesDefaults(t *testing.T) {
	setRequired(t)
	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.JWTTTL != 24*time.Hour {
		t.Fatalf("JWTTTL = %s, want 24h", c.JWTTTL)
	}
	if c.QuoteAPIURL != "https://cloud.iexapis.com" || c.WSOrigin != "*" || c.StartingCash != "10000" {
		t.Fatalf("defaults not applied: %+v", c)
	}
}

func TestLoadReportsAllMissingVars(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("QUOTE_API_KEY", "")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing env")
	}
	if !strings.Contains(err.Error(), "JWT_SECRET,QUOTE_API_KEY") {
		t.Fatalf("error = %q, want both missing names listed", err)
	}
}
