// ABOUTME: Configuration loading and parsing for tripquote-gateway.
// ABOUTME: YAML with environment variable expansion, duration parsing, and demo-friendly defaults.

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete tripquote-gateway configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	SSE     SSEConfig     `yaml:"sse"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Debug   bool          `yaml:"debug"`
}

// ServerConfig holds the listen address and the externally visible base URL
// used when handing SSE clients their paired POST endpoint.
type ServerConfig struct {
	HTTPAddr  string `yaml:"http_addr"`
	PublicURL string `yaml:"public_url"`
}

// AuthConfig holds the pre-shared API key. Empty means every request is
// authorized; that is the documented local/demo default.
type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// SSEConfig holds tuning for the event stream.
type SSEConfig struct {
	HeartbeatInterval time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	HeartbeatIntervalRaw string `yaml:"heartbeat_interval"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig holds metrics endpoint configuration.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the configuration used when no file exists: localhost
// listener, open auth, 25s heartbeats, metrics on.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:  "127.0.0.1:8080",
			PublicURL: "http://127.0.0.1:8080",
		},
		SSE: SSEConfig{
			HeartbeatInterval: 25 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded.
// Missing fields fall back to the defaults from Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables become empty strings.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// HasAuth reports whether a pre-shared API key is configured.
func (c *Config) HasAuth() bool {
	return c.Auth.APIKey != ""
}

// Validate checks that all required configuration fields are present and
// valid. Returns an error describing the first failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Server.PublicURL == "" {
		return fmt.Errorf("server.public_url is required")
	}
	if c.SSE.HeartbeatInterval <= 0 {
		return fmt.Errorf("sse.heartbeat_interval must be positive")
	}
	if c.Metrics.Enabled && c.Metrics.Path == "" {
		return fmt.Errorf("metrics.path is required when metrics are enabled")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values.
func parseDurations(cfg *Config) error {
	if cfg.SSE.HeartbeatIntervalRaw != "" {
		d, err := time.ParseDuration(cfg.SSE.HeartbeatIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing heartbeat_interval %q: %w", cfg.SSE.HeartbeatIntervalRaw, err)
		}
		cfg.SSE.HeartbeatInterval = d
	}
	return nil
}
