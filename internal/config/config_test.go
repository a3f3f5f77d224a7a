package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DSN", "MEDIA_DIR", "LOG_FILE", "BASE_URL", "MAGIC_LINK_TTL", "COOKIE_SECURE"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "8080" || cfg.DBDSN != "pumarket.db" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Fatalf("base url default: %s", cfg.BaseURL)
	}
	if cfg.MagicLinkTTL != 15*time.Minute {
		t.Fatalf("ttl default: %v", cfg.MagicLinkTTL)
	}
	if cfg.MagicLinkSecret == "" {
		t.Fatal("secret must fall back to a development key")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MAGIC_LINK_TTL", "bogus")
	t.Setenv("COOKIE_SECURE", "true")
	cfg := Load()
	if cfg.Port != "9090" || cfg.BaseURL != "http://localhost:9090" {
		t.Fatalf("port override: %+v", cfg)
	}
	if cfg.MagicLinkTTL != 15*time.Minute {
		t.Fatalf("bad ttl should fall back, got %v", cfg.MagicLinkTTL)
	}
	if !cfg.CookieSecure {
		t.Fatal("COOKIE_SECURE=true not honoured")
	}
}
