package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port: got %q, want 8080", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("Env: got %q, want development", cfg.Env)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("SessionTTL: got %v, want 30m", cfg.SessionTTL)
	}
	if cfg.CalendarTimeout != 10*time.Second {
		t.Errorf("CalendarTimeout: got %v, want 10s", cfg.CalendarTimeout)
	}
	if cfg.DefaultCalendarID != "primary" {
		t.Errorf("DefaultCalendarID: got %q, want primary", cfg.DefaultCalendarID)
	}
	if cfg.DefaultClinicID != "demo" {
		t.Errorf("DefaultClinicID: got %q, want demo", cfg.DefaultClinicID)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("BASE_URL", "https://receptionist.example.com/")

	cfg := Load()

	if cfg.Port != "9999" {
		t.Errorf("Port: got %q, want 9999", cfg.Port)
	}
	if cfg.SessionTTL != 15*time.Minute {
		t.Errorf("SessionTTL: got %v, want 15m", cfg.SessionTTL)
	}
	if !cfg.RedisTLS {
		t.Error("RedisTLS: got false, want true")
	}
	if cfg.PublicBaseURL != "https://receptionist.example.com" {
		t.Errorf("PublicBaseURL: trailing slash not trimmed: %q", cfg.PublicBaseURL)
	}
}

func TestLoadCORSOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,,")

	cfg := Load()

	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("CORSAllowedOrigins: got %v, want 2 entries", cfg.CORSAllowedOrigins)
	}
	if cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("CORSAllowedOrigins[1]: got %q", cfg.CORSAllowedOrigins[1])
	}
}

func TestLoadRateLimits(t *testing.T) {
	t.Setenv("WEBHOOK_RATE_PER_SEC", "2.5")
	t.Setenv("WEBHOOK_RATE_BURST", "7")

	cfg := Load()

	if cfg.WebhookRatePerSec != 2.5 {
		t.Errorf("WebhookRatePerSec: got %v, want 2.5", cfg.WebhookRatePerSec)
	}
	if cfg.WebhookRateBurst != 7 {
		t.Errorf("WebhookRateBurst: got %v, want 7", cfg.WebhookRateBurst)
	}
}

func TestLoadBadDuration(t *testing.T) {
	t.Setenv("SESSION_TTL", "not-a-duration")
	cfg := Load()
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("SessionTTL: got %v, want default 30m on parse failure", cfg.SessionTTL)
	}
}
