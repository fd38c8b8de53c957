package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"

	"github.com/pixeljam/devwatch/internal/host"
)

// Config holds all dashboard host configuration.
type Config struct {
	Server    ServerConfig
	Security  SecurityConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Heartbeat HeartbeatConfig
	Frames    FramesConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8600"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// SecurityConfig holds the embedder allow-list shared with guests.
type SecurityConfig struct {
	AllowedDomains []string `envconfig:"ALLOWED_DOMAINS" default:"pixeljamarcade.com"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// HeartbeatConfig holds guest liveness probing configuration.
type HeartbeatConfig struct {
	Interval time.Duration `envconfig:"HEARTBEAT_INTERVAL" default:"30s"`
	Enabled  bool          `envconfig:"HEARTBEAT_ENABLED" default:"true"`
}

// FramesConfig points at the yaml manifest of guest frames to create at
// bootstrap.
type FramesConfig struct {
	Manifest string `envconfig:"FRAMES_MANIFEST" default:""`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("DEVWATCH", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8600",
			Host: "0.0.0.0",
		},
		Security: SecurityConfig{
			AllowedDomains: []string{"pixeljamarcade.com"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Heartbeat: HeartbeatConfig{
			Interval: 30 * time.Second,
			Enabled:  true,
		},
	}
}

// framesManifest is the yaml shape of the bootstrap manifest.
type framesManifest struct {
	Frames []host.FrameConfig `yaml:"frames"`
}

// LoadFrames reads the guest frame manifest. A missing path returns an
// empty batch, not an error; the dashboard can run with no preconfigured
// frames.
func LoadFrames(path string) ([]host.FrameConfig, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frames manifest: %w", err)
	}
	var manifest framesManifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse frames manifest: %w", err)
	}
	return manifest.Frames, nil
}
