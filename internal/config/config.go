package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort        = 8080
	DefaultBackendURL  = "http://localhost:5000"
	DefaultTimeout     = 15 * time.Second
	DefaultDatabaseDSN = "./data/survey.db"
	DefaultCORSOrigin  = "http://localhost:3000"
	DefaultLogLevel    = "info"
)

// Config holds the application configuration
type Config struct {
	Port     int            `yaml:"port"`
	Version  string         `yaml:"-"`
	Backend  BackendConfig  `yaml:"backend"`
	Database DatabaseConfig `yaml:"database"`
	CORS     CORSConfig     `yaml:"cors"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// BackendConfig points at the prediction service.
type BackendConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"` // per call; zero disables
}

// DatabaseConfig selects where survey submissions are stored.
// postgres:// DSNs use pgx, anything else is treated as a SQLite path.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// CORSConfig configures the allowed browser origin.
type CORSConfig struct {
	Origin      string `yaml:"origin"`
	Credentials bool   `yaml:"credentials"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// Default returns the development configuration
func Default() Config {
	return Config{
		Port:    DefaultPort,
		Version: "dev",
		Backend: BackendConfig{
			URL:     DefaultBackendURL,
			Timeout: DefaultTimeout,
		},
		Database: DatabaseConfig{DSN: DefaultDatabaseDSN},
		CORS:     CORSConfig{Origin: DefaultCORSOrigin, Credentials: true},
		Logging:  LoggingConfig{Level: DefaultLogLevel, Format: "json"},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order of precedence (later wins). Callers apply their
// own overrides and then call Validate.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	// NEXT_PUBLIC_BACKEND_URL is what the old front end read; BACKEND_URL wins.
	if v := getEnv("NEXT_PUBLIC_BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := getEnv("BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := getEnv("BACKEND_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid BACKEND_TIMEOUT %q: %w", v, err)
		}
		c.Backend.Timeout = d
	}
	if v := getEnv("DATABASE_URL"); v != "" {
		c.Database.DSN = v
	}
	if v := getEnv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = p
	}
	if v := getEnv("CORS_ORIGIN"); v != "" {
		c.CORS.Origin = v
	}
	if v := getEnv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if strings.TrimSpace(c.Backend.URL) == "" {
		return fmt.Errorf("backend url is empty")
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("backend timeout must not be negative")
	}
	return nil
}

func getEnv(k string) string {
	return strings.TrimSpace(os.Getenv(k))
}
