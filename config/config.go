// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/formgate/formgate/domain/endpoint"
	"github.com/formgate/formgate/domain/format"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Auth      AuthConfig       `yaml:"auth"`
	Database  DatabaseConfig   `yaml:"database"`
	Logging   LoggingConfig    `yaml:"logging"`
	Metrics   MetricsConfig    `yaml:"metrics"`
	CORS      CORSConfig       `yaml:"cors"`
	Endpoints []EndpointConfig `yaml:"endpoints"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// AuthConfig configures token validation.
type AuthConfig struct {
	// Enabled is the global switch; endpoint-level auth only takes
	// effect when this is on.
	Enabled bool `yaml:"enabled"`

	// Secret signs tokens. Empty means a random per-process secret
	// (tokens do not survive restarts).
	Secret string `yaml:"secret,omitempty"`

	// TokenKey names the header/query/body slot the token travels in.
	TokenKey string `yaml:"token_key"`

	// TTL is the default token lifetime for issued tokens.
	TTL time.Duration `yaml:"ttl"`
}

// DatabaseConfig configures the access-log database.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // default: /metrics
}

// CORSConfig configures CORS negotiation.
type CORSConfig struct {
	Enabled bool `yaml:"enabled"`

	// MaxHeaders caps the accumulated allow-header store.
	MaxHeaders int `yaml:"max_headers"`
}

// EndpointConfig declares one routed endpoint. The request format uses the
// descriptor notation parsed by format.Parse.
type EndpointConfig struct {
	Path        string         `yaml:"path"`
	Methods     string         `yaml:"methods"` // get | post | all (default all)
	Handler     string         `yaml:"handler"`
	ContentType string         `yaml:"content_type,omitempty"`
	Strict      bool           `yaml:"strict,omitempty"`
	Auth        bool           `yaml:"auth,omitempty"`
	Permissions []string       `yaml:"permissions,omitempty"`
	Headers     map[string]any `yaml:"headers,omitempty"`
	Request     any            `yaml:"request,omitempty"`
}

// Endpoint converts the declaration to its domain value, parsing the
// descriptor notation. Authoring faults (unknown descriptors, empty array
// templates) surface here, at load time.
func (ec EndpointConfig) Endpoint() (endpoint.Endpoint, error) {
	ep := endpoint.Endpoint{
		Path:        ec.Path,
		Methods:     endpoint.MethodClass(strings.ToLower(ec.Methods)),
		Handler:     ec.Handler,
		ContentType: ec.ContentType,
		Strict:      ec.Strict,
		Auth:        ec.Auth,
		Permissions: ec.Permissions,
	}
	if ep.Methods == "" {
		ep.Methods = endpoint.MethodAll
	}

	if ec.Request != nil {
		d, err := format.Parse(ec.Request)
		if err != nil {
			return endpoint.Endpoint{}, fmt.Errorf("endpoint %s: request: %w", ec.Path, err)
		}
		ep.Request = &d
	}

	if len(ec.Headers) > 0 {
		ep.Headers = make(map[string]format.Descriptor, len(ec.Headers))
		for name, raw := range ec.Headers {
			d, err := format.Parse(raw)
			if err != nil {
				return endpoint.Endpoint{}, fmt.Errorf("endpoint %s: header %q: %w", ec.Path, name, err)
			}
			ep.Headers[name] = d
		}
	}

	return ep, nil
}

// Table builds the frozen endpoint table from the configured endpoints
// and runs authoring checks across it.
func (c *Config) Table() (*endpoint.Table, error) {
	table := endpoint.NewTable()
	for _, ec := range c.Endpoints {
		ep, err := ec.Endpoint()
		if err != nil {
			return nil, err
		}
		if err := table.Register(ep); err != nil {
			return nil, err
		}
	}
	if err := table.Check(); err != nil {
		return nil, err
	}
	table.Freeze()
	return table, nil
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides applies FORMGATE_* environment variables.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FORMGATE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("FORMGATE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FORMGATE_AUTH_ENABLED"); v != "" {
		cfg.Auth.Enabled = parseBool(v)
	}
	if v := os.Getenv("FORMGATE_AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("FORMGATE_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("FORMGATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FORMGATE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("FORMGATE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Auth.TokenKey == "" {
		cfg.Auth.TokenKey = "access-token"
	}
	if cfg.Auth.TTL == 0 {
		cfg.Auth.TTL = 24 * time.Hour
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "formgate.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.CORS.MaxHeaders == 0 {
		cfg.CORS.MaxHeaders = 256
	}
}

func validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", cfg.Server.Port))
	}
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q invalid", cfg.Logging.Level))
	}
	switch cfg.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("logging.format %q invalid", cfg.Logging.Format))
	}
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, fmt.Sprintf("metrics.path %q must start with /", cfg.Metrics.Path))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
