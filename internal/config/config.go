// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"` // bearer token for the HTTP API
	Auth   struct {
		Secret string        `yaml:"secret"` // HMAC secret for session cookies
		TTL    time.Duration `yaml:"ttl"`
		Secure bool          `yaml:"secure"` // true behind TLS
		Domain string        `yaml:"domain"`
	} `yaml:"auth"`
	// RateLimit bounds job submissions per client per window.
	RateLimit struct {
		Requests int           `yaml:"requests"`
		Window   time.Duration `yaml:"window"`
	} `yaml:"rate_limit"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"` // optional; when set, jobs persist in Postgres
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ResearchConfig struct {
	Provider        string            `yaml:"provider"` // openai | openrouter
	APIKey          string            `yaml:"api_key"`
	BaseURL         string            `yaml:"base_url"`
	Headers         map[string]string `yaml:"headers"`
	DefaultModel    string            `yaml:"default_model"`
	PollInterval    time.Duration     `yaml:"poll_interval"`
	ConcurrentLimit int               `yaml:"concurrent_limit"` // max jobs tracked at once
	ResumeInterval  time.Duration     `yaml:"resume_interval"`  // sweep for orphaned running jobs
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key"` // 16/24/32 bytes for AES
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Research ResearchConfig `yaml:"research"`
	Security SecurityConfig `yaml:"security"`

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
	cfg.Runtime.Dev = dev
	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Auth.TTL <= 0 {
		cfg.Server.Auth.TTL = 30 * time.Minute
	}
	if cfg.Server.RateLimit.Requests <= 0 {
		cfg.Server.RateLimit.Requests = 10
	}
	if cfg.Server.RateLimit.Window <= 0 {
		cfg.Server.RateLimit.Window = time.Minute
	}
	if cfg.Research.Provider == "" {
		cfg.Research.Provider = "openai"
	}
	if cfg.Research.DefaultModel == "" {
		cfg.Research.DefaultModel = "o3-deep-research-2025-06-26"
	}
	if cfg.Research.PollInterval <= 0 {
		cfg.Research.PollInterval = 2 * time.Second
	}
	if cfg.Research.ConcurrentLimit <= 0 {
		cfg.Research.ConcurrentLimit = 16
	}
	if cfg.Research.ResumeInterval <= 0 {
		cfg.Research.ResumeInterval = time.Minute
	}
}
