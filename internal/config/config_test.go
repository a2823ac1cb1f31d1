//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
database:
  url: postgres://localhost:5432/payments
redis:
  url: localhost:6379
gateway:
  merchant_id: MERCHANT1
  salt: salt-secret
security:
  session_secret: hmac-secret
`

func TestLoadConfig(t *testing.T) {
	t.Run("should apply defaults on a minimal config", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, minimalConfig), false)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if cfg.Server.Port != 8080 {
			t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
		}
		if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
			t.Errorf("unexpected log defaults: %+v", cfg.Log)
		}
		if cfg.Gateway.Timeout != 10*time.Second {
			t.Errorf("expected default gateway timeout, got %s", cfg.Gateway.Timeout)
		}
		if cfg.Reconciler.Interval != time.Minute || cfg.Reconciler.Workers != 4 {
			t.Errorf("unexpected reconciler defaults: %+v", cfg.Reconciler)
		}
		if cfg.RateLimit.PollPerMinute != 30 {
			t.Errorf("expected default poll rate, got %d", cfg.RateLimit.PollPerMinute)
		}
		if cfg.Runtime.Dev {
			t.Error("dev mode must be off by default")
		}
	})

	t.Run("should carry the dev flag", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, minimalConfig), true)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if !cfg.Runtime.Dev {
			t.Error("expected dev mode to be on")
		}
	})

	t.Run("should reject missing required fields", func(t *testing.T) {
		cases := []struct {
			name string
			yaml string
		}{
			{"missing database", "redis:\n  url: localhost:6379\ngateway:\n  merchant_id: m\n  salt: s\nsecurity:\n  session_secret: x\n"},
			{"missing redis", "database:\n  url: postgres://x\ngateway:\n  merchant_id: m\n  salt: s\nsecurity:\n  session_secret: x\n"},
			{"missing merchant", "database:\n  url: postgres://x\nredis:\n  url: localhost:6379\ngateway:\n  salt: s\nsecurity:\n  session_secret: x\n"},
			{"missing salt", "database:\n  url: postgres://x\nredis:\n  url: localhost:6379\ngateway:\n  merchant_id: m\nsecurity:\n  session_secret: x\n"},
			{"missing session secret", "database:\n  url: postgres://x\nredis:\n  url: localhost:6379\ngateway:\n  merchant_id: m\n  salt: s\n"},
		}
		for _, tc := range cases {
			if _, err := LoadConfig(writeConfig(t, tc.yaml), false); err == nil {
				t.Errorf("%s: expected an error", tc.name)
			}
		}
	})

	t.Run("should fail on a missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), false); err == nil {
			t.Error("expected an error")
		}
	})
}
