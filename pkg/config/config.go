// Package config loads windrose-engine configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for windrose-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3470"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// Authentication configuration for the MCP endpoint
	Auth AuthConfig `yaml:"auth"`

	// Project store configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Durable session store configuration (Redis)
	Redis RedisConfig `yaml:"redis"`

	// Reverse-geocoding collaborator
	Geocoder GeocoderConfig `yaml:"geocoder"`

	// Duplicate detection defaults
	Dedup DedupConfig `yaml:"dedup"`

	// Optional LLM assistance for ambiguous project references
	ResolverAI ResolverAIConfig `yaml:"resolver_ai"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// EnableVerification controls whether JWT tokens are validated.
	// Set to false for local development without an auth server.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"false"`

	// JWKSEndpointsStr is a comma-separated list of issuer=jwks_url pairs.
	// Format: "issuer1=url1,issuer2=url2"
	JWKSEndpointsStr string `yaml:"jwks_endpoints" env:"JWKS_ENDPOINTS" env-default:""`

	// JWKSEndpoints is the parsed map from JWKSEndpointsStr (not from config file).
	JWKSEndpoints map[string]string `yaml:"-"`
}

// DatabaseConfig holds PostgreSQL project-store configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"windrose"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"windrose_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

// RedisConfig holds Redis session-store configuration.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// GeocoderConfig holds reverse-geocoding client settings.
type GeocoderConfig struct {
	// BaseURL of a Nominatim-compatible reverse geocoding endpoint.
	BaseURL string `yaml:"base_url" env:"GEOCODER_BASE_URL" env-default:"https://nominatim.openstreetmap.org"`
	// UserAgent identifies this service to the geocoder (required by Nominatim's usage policy).
	UserAgent string `yaml:"user_agent" env:"GEOCODER_USER_AGENT" env-default:"windrose-engine"`
	// TimeoutSeconds bounds a single reverse-geocode request.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"GEOCODER_TIMEOUT_SECONDS" env-default:"5"`
}

// DedupConfig holds duplicate-detection defaults.
type DedupConfig struct {
	// DefaultRadiusKm is the radius used when a caller does not supply one.
	DefaultRadiusKm float64 `yaml:"default_radius_km" env:"DEDUP_DEFAULT_RADIUS_KM" env-default:"1.0"`
}

// ResolverAIConfig holds optional LLM settings for ranking ambiguous project
// references. When Provider is empty the resolver stays fully deterministic.
type ResolverAIConfig struct {
	// Provider selects the chat backend: "openai", "anthropic", or "" (disabled).
	Provider string `yaml:"provider" env:"RESOLVER_AI_PROVIDER" env-default:""`
	BaseURL  string `yaml:"base_url" env:"RESOLVER_AI_BASE_URL" env-default:""`
	Model    string `yaml:"model" env:"RESOLVER_AI_MODEL" env-default:""`
	APIKey   string `yaml:"-" env:"RESOLVER_AI_API_KEY"` // Secret - not in YAML
}

// Enabled reports whether LLM-assisted resolution is configured.
func (c *ResolverAIConfig) Enabled() bool {
	return c.Provider != "" && c.Model != ""
}

// Load reads configuration from path (default "config.yaml") with environment
// variable overrides. When the file does not exist, configuration comes from
// the environment alone. The version parameter is injected at build time and
// set on the returned Config.
func Load(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if path == "" {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	cfg.Auth.JWKSEndpoints = parseJWKSEndpoints(cfg.Auth.JWKSEndpointsStr)

	if cfg.Auth.EnableVerification && len(cfg.Auth.JWKSEndpoints) == 0 {
		return nil, fmt.Errorf("auth verification enabled but no JWKS endpoints configured")
	}

	// Auto-derive BaseURL from Port if not explicitly set
	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{
			Scheme: "http",
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// parseJWKSEndpoints parses the JWKS endpoints string into a map.
// Format: "issuer1=url1,issuer2=url2"
func parseJWKSEndpoints(value string) map[string]string {
	endpoints := make(map[string]string)
	if value == "" {
		return endpoints
	}

	for _, pair := range strings.Split(value, ",") {
		parts := strings.Split(pair, "=")
		if len(parts) == 2 {
			endpoints[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return endpoints
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
