package config

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestLoad_DefaultPasswordHashMatchesDevPassword(t *testing.T) {
	t.Setenv("AUTH_PASSWORD_HASH", "")

	cfg := Load()
	if err := bcrypt.CompareHashAndPassword([]byte(cfg.AuthPasswordHash), []byte("contabil123")); err != nil {
		t.Errorf("default hash must verify the documented dev password: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_TTL", "45s")

	cfg := Load()
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.CacheTTL != 45*time.Second {
		t.Errorf("CacheTTL = %s, want 45s", cfg.CacheTTL)
	}
}
