package shared

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Firebase FirebaseConfig `toml:"firebase"`
	Database DatabaseConfig `toml:"database"`
	Sandbox  SandboxConfig  `toml:"sandbox"`
	Log      LogConfig      `toml:"log"`
}

// APIConfig contains settings for the back office REST API.
type APIConfig struct {
	BaseURL        string  `toml:"base_url" env:"API_BASE_URL"`
	TimeoutSeconds int     `toml:"timeout_seconds" env:"API_TIMEOUT_SECONDS"`
	RateLimit      float64 `toml:"rate_limit" env:"API_RATE_LIMIT"`
}

// Timeout returns the transport timeout, zero meaning the transport default.
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// FirebaseConfig contains identity provider settings.
type FirebaseConfig struct {
	APIKey      string `toml:"api_key" env:"FIREBASE_API_KEY"`
	IdentityURL string `toml:"identity_url" env:"FIREBASE_IDENTITY_URL"`
	TokenURL    string `toml:"token_url" env:"FIREBASE_TOKEN_URL"`
}

// DatabaseConfig contains local database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"DATABASE_PATH"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// SandboxConfig contains settings for the local sandbox backend.
type SandboxConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	Seed bool   `toml:"seed"`
	// TokenTTLSeconds is the lifetime of identity tokens issued by the sandbox. Short values exercise refresh.
	TokenTTLSeconds int    `toml:"token_ttl_seconds"`
	AdminEmail      string `toml:"admin_email"`
	AdminPassword   string `toml:"admin_password" env:"SANDBOX_ADMIN_PASSWORD"`
}

// Addr returns the host:port pair the sandbox listens on.
func (c SandboxConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TokenTTL returns the sandbox token lifetime, defaulting to one hour.
func (c SandboxConfig) TokenTTL() time.Duration {
	if c.TokenTTLSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(c.TokenTTLSeconds) * time.Second
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level" env:"LOG_LEVEL"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// EnvPrefix prefixes every environment variable read by [Config.ApplyEnv].
const EnvPrefix = "REELADMIN_"

// ApplyEnv overrides settings from REELADMIN_* environment variables, e.g. REELADMIN_API_BASE_URL or
// REELADMIN_FIREBASE_API_KEY. Unset variables leave the current value alone.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports the first setting that would prevent the client from running.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: api.base_url %q", ErrInvalidConfig, c.API.BaseURL)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("%w: api.rate_limit must not be negative", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Firebase.APIKey) == "" {
		return fmt.Errorf("%w: firebase.api_key", ErrMissingCredentials)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path", ErrInvalidConfig)
	}
	return nil
}
