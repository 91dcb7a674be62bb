package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setRequiredEnv pins every XY_ variable so earlier tests (or dotfiles
// loaded by them) cannot leak into this one.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("XY_BASE_URL", "https://codex.example.com")
	t.Setenv("XY_SESSION_COOKIE_NAME", "session")
	t.Setenv("XY_SESSION_COOKIE_VALUE", "secret")
	for _, key := range []string{
		"XY_VIBE_QUOTA_ENDPOINT",
		"XY_DATABASE_PATH",
		"XY_REQUEST_TIMEOUT",
		"XY_USER_AGENT",
		"XY_LOG_LEVEL",
	} {
		unsetEnv(t, key)
	}
}

// unsetEnv removes a variable for the duration of the test. t.Setenv
// registers the restore; os.Unsetenv removes the empty value it set.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unset %s: %v", key, err)
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.QuotaEndpoint != "/frontend-api/vibe-code/quota" {
		t.Errorf("QuotaEndpoint = %q, want default", cfg.QuotaEndpoint)
	}
	if cfg.DatabasePath != "codex_vibe_monitor.db" {
		t.Errorf("DatabasePath = %q, want default", cfg.DatabasePath)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Errorf("RequestTimeout = %v, want 15s", cfg.RequestTimeout)
	}
	if cfg.UserAgent != "codex-vibe-monitor/0.1.0" {
		t.Errorf("UserAgent = %q, want codex-vibe-monitor/0.1.0", cfg.UserAgent)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("XY_VIBE_QUOTA_ENDPOINT", "/custom/quota")
	t.Setenv("XY_DATABASE_PATH", "/tmp/custom.db")
	t.Setenv("XY_REQUEST_TIMEOUT", "30s")
	t.Setenv("XY_USER_AGENT", "custom-agent/9.9")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.QuotaEndpoint != "/custom/quota" {
		t.Errorf("QuotaEndpoint = %q", cfg.QuotaEndpoint)
	}
	if cfg.DatabasePath != "/tmp/custom.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.UserAgent != "custom-agent/9.9" {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	for _, key := range []string{
		"XY_BASE_URL",
		"XY_SESSION_COOKIE_NAME",
		"XY_SESSION_COOKIE_VALUE",
	} {
		t.Run(key, func(t *testing.T) {
			setRequiredEnv(t)
			unsetEnv(t, key)

			_, err := Load(context.Background())
			if !errors.Is(err, ErrMissing) {
				t.Fatalf("Load() error = %v, want ErrMissing", err)
			}
		})
	}
}

func TestLoadInvalidBaseURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("XY_BASE_URL", "not-a-url")

	_, err := Load(context.Background())
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("Load() error = %v, want ErrInvalid", err)
	}
}

func TestLoadInvalidAbsoluteEndpoint(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("XY_VIBE_QUOTA_ENDPOINT", "http://%zz")

	_, err := Load(context.Background())
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("Load() error = %v, want ErrInvalid", err)
	}
}

func TestQuotaURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		base     string
		endpoint string
		want     string
	}{
		{
			name:     "default endpoint",
			base:     "https://codex.example.com",
			endpoint: "/frontend-api/vibe-code/quota",
			want:     "https://codex.example.com/frontend-api/vibe-code/quota",
		},
		{
			name:     "base path preserved",
			base:     "https://codex.example.com/tenant",
			endpoint: "/quota",
			want:     "https://codex.example.com/tenant/quota",
		},
		{
			name:     "endpoint without leading slash",
			base:     "https://codex.example.com",
			endpoint: "quota",
			want:     "https://codex.example.com/quota",
		},
		{
			name:     "absolute endpoint wins",
			base:     "https://codex.example.com",
			endpoint: "https://other.example.com/api/quota",
			want:     "https://other.example.com/api/quota",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &Config{BaseURL: tt.base, QuotaEndpoint: tt.endpoint}
			u, err := cfg.QuotaURL()
			if err != nil {
				t.Fatalf("QuotaURL() error = %v", err)
			}
			if u.String() != tt.want {
				t.Errorf("QuotaURL() = %q, want %q", u.String(), tt.want)
			}
		})
	}
}

func TestDotfilePrecedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"),
		"XY_BASE_URL=https://from-dotenv.example.com\n"+
			"XY_SESSION_COOKIE_NAME=dotenv-cookie\n"+
			"XY_SESSION_COOKIE_VALUE=dotenv-value\n"+
			"XY_DATABASE_PATH=dotenv.db\n")
	writeFile(t, filepath.Join(dir, ".env.local"),
		"XY_SESSION_COOKIE_NAME=local-cookie\n"+
			"XY_DATABASE_PATH=local.db\n")

	setRequiredEnv(t)
	for _, key := range []string{
		"XY_BASE_URL",
		"XY_SESSION_COOKIE_NAME",
		"XY_SESSION_COOKIE_VALUE",
	} {
		unsetEnv(t, key)
	}
	t.Setenv("XY_SESSION_COOKIE_VALUE", "env-value")
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("os.Getwd() error = %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("os.Chdir() error = %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(oldWD); err != nil {
			t.Fatalf("os.Chdir() error = %v", err)
		}
	})

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Only .env defines the base URL.
	if cfg.BaseURL != "https://from-dotenv.example.com" {
		t.Errorf("BaseURL = %q, want value from .env", cfg.BaseURL)
	}
	// .env.local overrides .env.
	if cfg.CookieName != "local-cookie" {
		t.Errorf("CookieName = %q, want value from .env.local", cfg.CookieName)
	}
	if cfg.DatabasePath != "local.db" {
		t.Errorf("DatabasePath = %q, want value from .env.local", cfg.DatabasePath)
	}
	// The process environment overrides both.
	if cfg.CookieValue != "env-value" {
		t.Errorf("CookieValue = %q, want value from process env", cfg.CookieValue)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
