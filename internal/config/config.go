// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type GatewayConfig struct {
	MerchantID  string        `yaml:"merchant_id"`
	Salt        string        `yaml:"salt"`       // shared secret for request checksums and webhook signatures
	SaltIndex   string        `yaml:"salt_index"` // key version advertised alongside the checksum
	CallbackURL string        `yaml:"callback_url"`
	Sandbox     bool          `yaml:"sandbox"`
	Timeout     time.Duration `yaml:"timeout"`
}

type SecurityConfig struct {
	SessionSecret string        `yaml:"session_secret"` // HMAC key for session JWTs
	SessionTTL    time.Duration `yaml:"session_ttl"`
	CsrfTTL       time.Duration `yaml:"csrf_ttl"`
}

type ReconcilerConfig struct {
	Interval   time.Duration `yaml:"interval"`    // how often to scan for stale pending payments
	StaleAfter time.Duration `yaml:"stale_after"` // how old a pending payment must be to re-poll
	Workers    int           `yaml:"workers"`
}

type RateLimitConfig struct {
	PollPerMinute int `yaml:"poll_per_minute"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Security   SecurityConfig   `yaml:"security"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Gateway.Timeout <= 0 {
		cfg.Gateway.Timeout = 10 * time.Second
	}
	if cfg.Security.SessionTTL <= 0 {
		cfg.Security.SessionTTL = 12 * time.Hour
	}
	if cfg.Security.CsrfTTL <= 0 {
		cfg.Security.CsrfTTL = 24 * time.Hour
	}
	if cfg.Reconciler.Interval <= 0 {
		cfg.Reconciler.Interval = time.Minute
	}
	if cfg.Reconciler.StaleAfter <= 0 {
		cfg.Reconciler.StaleAfter = 10 * time.Minute
	}
	if cfg.Reconciler.Workers <= 0 {
		cfg.Reconciler.Workers = 4
	}
	if cfg.RateLimit.PollPerMinute <= 0 {
		cfg.RateLimit.PollPerMinute = 30
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Gateway.MerchantID == "" {
		return nil, errors.New("gateway.merchant_id is required")
	}
	if cfg.Gateway.Salt == "" {
		return nil, errors.New("gateway.salt is required")
	}
	if cfg.Security.SessionSecret == "" {
		return nil, errors.New("security.session_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
