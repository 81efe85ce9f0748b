package config

import (
	"testing"
	"time"
)

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail without JWT_SECRET")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-at-least-16-chars!!")
	t.Setenv("PORT", "")
	t.Setenv("DB_PATH", "")
	t.Setenv("ACCESS_TOKEN_TTL", "")
	t.Setenv("REFRESH_TOKEN_TTL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.DBPath != "data/contacts.db" {
		t.Errorf("DBPath = %q, want data/contacts.db", cfg.DBPath)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Errorf("AccessTokenTTL = %v, want 15m", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 7*24*time.Hour {
		t.Errorf("RefreshTokenTTL = %v, want 168h", cfg.RefreshTokenTTL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-at-least-16-chars!!")
	t.Setenv("PORT", "9191")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("REFRESH_TOKEN_TTL", "48h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 9191 {
		t.Errorf("Port = %d, want 9191", cfg.Port)
	}
	if cfg.AccessTokenTTL != 5*time.Minute {
		t.Errorf("AccessTokenTTL = %v, want 5m", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 48*time.Hour {
		t.Errorf("RefreshTokenTTL = %v, want 48h", cfg.RefreshTokenTTL)
	}
}

func TestLoad_BadValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-at-least-16-chars!!")

	t.Setenv("PORT", "not-a-number")
	if _, err := Load(); err == nil {
		t.Error("Load() should reject a non-numeric PORT")
	}
	t.Setenv("PORT", "8080")

	t.Setenv("ACCESS_TOKEN_TTL", "soon")
	if _, err := Load(); err == nil {
		t.Error("Load() should reject a malformed ACCESS_TOKEN_TTL")
	}
}
