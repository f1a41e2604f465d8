package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "")
	t.Setenv("AUTH_REFRESH_TOKEN_TTL_HOURS", "")
	t.Setenv("AUTH_PASSWORD_HASH_ALGORITHM", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Auth.AccessTokenTTL(); got != time.Hour {
		t.Fatalf("access ttl: got %v", got)
	}
	if got := cfg.Auth.RefreshTokenTTL(); got != 7*24*time.Hour {
		t.Fatalf("refresh ttl: got %v", got)
	}
	if cfg.Auth.PasswordHashAlgorithm != "bcrypt" {
		t.Fatalf("unexpected hash algorithm %q", cfg.Auth.PasswordHashAlgorithm)
	}
	if cfg.Kafka.Enabled() {
		t.Fatalf("kafka should be disabled without brokers")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_HOST", "127.0.0.1")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("AUTH_JWT_SECRET", "test-jwt-secret")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "120")
	t.Setenv("AUTH_REFRESH_TOKEN_TTL_HOURS", "336")
	t.Setenv("AUTH_PASSWORD_HASH_ALGORITHM", "ARGON2ID")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Addr() != "127.0.0.1:8080" {
		t.Fatalf("unexpected addr %s", cfg.App.Addr())
	}
	if cfg.Auth.JWTSecret != "test-jwt-secret" {
		t.Fatalf("unexpected secret %q", cfg.Auth.JWTSecret)
	}
	if got := cfg.Auth.AccessTokenTTL(); got != 2*time.Hour {
		t.Fatalf("access ttl: got %v", got)
	}
	if got := cfg.Auth.RefreshTokenTTL(); got != 14*24*time.Hour {
		t.Fatalf("refresh ttl: got %v", got)
	}
	if cfg.Auth.PasswordHashAlgorithm != "argon2id" {
		t.Fatalf("algorithm should be lower-cased, got %q", cfg.Auth.PasswordHashAlgorithm)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.Kafka.Brokers)
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Setenv("AUTH_PASSWORD_HASH_ALGORITHM", "md5")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unsupported hash algorithm")
	}

	t.Setenv("AUTH_PASSWORD_HASH_ALGORITHM", "bcrypt")
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for default secret in production")
	}
}

func TestNonPositiveTTLsFallBackToDefaults(t *testing.T) {
	a := AuthConfig{AccessTokenTTLMinutes: 0, RefreshTokenTTLHours: -1}
	if a.AccessTokenTTL() != time.Hour || a.RefreshTokenTTL() != 7*24*time.Hour {
		t.Fatalf("expected defaults, got %v / %v", a.AccessTokenTTL(), a.RefreshTokenTTL())
	}
}
