package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("DB_DRIVER", "postgres")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Auth.Secret != devSecret {
		t.Errorf("Auth.Secret = %q, want dev fallback", cfg.Auth.Secret)
	}
	if cfg.Auth.SessionTTL != 12*time.Hour {
		t.Errorf("Auth.SessionTTL = %v, want 12h", cfg.Auth.SessionTTL)
	}
	if cfg.Auth.CookieName != "workflow_session" {
		t.Errorf("Auth.CookieName = %q", cfg.Auth.CookieName)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DATABASE_URL", "file:workflow.db")
	t.Setenv("AUTH_SECRET", "s3cret")
	t.Setenv("ADMIN_EMAIL", "  Boss@Example.COM ")
	t.Setenv("ADMIN_PASSWORD", "bootstrap")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if got := cfg.Database.ConnString(); got != "file:workflow.db" {
		t.Errorf("ConnString() = %q", got)
	}
	if cfg.Auth.AdminEmail != "boss@example.com" {
		t.Errorf("Auth.AdminEmail = %q", cfg.Auth.AdminEmail)
	}
	if cfg.Auth.AdminPassword != "bootstrap" {
		t.Errorf("Auth.AdminPassword = %q", cfg.Auth.AdminPassword)
	}
	if cfg.Auth.SessionTTL != 30*time.Minute {
		t.Errorf("Auth.SessionTTL = %v, want 30m", cfg.Auth.SessionTTL)
	}
	if !cfg.Redis.Enabled() {
		t.Error("Redis.Enabled() = false, want true")
	}
}

func TestLoadReleaseRequiresSecret(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "postgres")

	if _, err := Load(); err == nil {
		t.Fatal("Load() in release mode without secret should fail")
	}
}

func TestConnStringFromFields(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, User: "wf", Password: "pw", DBName: "workflow", SSLMode: "disable"}
	want := "postgres://wf:pw@db:5433/workflow?sslmode=disable"
	if got := d.ConnString(); got != want {
		t.Errorf("ConnString() = %q, want %q", got, want)
	}
}
