package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfigFile(t *testing.T, cfg map[string]any) string {
	t.Helper()
	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "test")
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Version)
	assert.Equal(t, "3470", cfg.Port)
	assert.Equal(t, "http://localhost:3470", cfg.BaseURL)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, 1.0, cfg.Dedup.DefaultRadiusKm)
	assert.False(t, cfg.Auth.EnableVerification)
	assert.False(t, cfg.ResolverAI.Enabled())
}

func TestLoadFromYAML(t *testing.T) {
	path := writeConfigFile(t, map[string]any{
		"port": "9900",
		"database": map[string]any{
			"host":     "db.internal",
			"database": "windrose_test",
		},
		"dedup": map[string]any{
			"default_radius_km": 2.5,
		},
		"geocoder": map[string]any{
			"base_url": "http://geocoder.internal",
		},
	})

	cfg, err := Load(path, "v1")
	require.NoError(t, err)

	assert.Equal(t, "9900", cfg.Port)
	assert.Equal(t, "http://localhost:9900", cfg.BaseURL)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "windrose_test", cfg.Database.Database)
	assert.Equal(t, 2.5, cfg.Dedup.DefaultRadiusKm)
	assert.Equal(t, "http://geocoder.internal", cfg.Geocoder.BaseURL)
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	path := writeConfigFile(t, map[string]any{"port": "9900"})
	t.Setenv("PORT", "8001")
	t.Setenv("PGPASSWORD", "s3cret")

	cfg, err := Load(path, "v1")
	require.NoError(t, err)

	assert.Equal(t, "8001", cfg.Port)
	assert.Equal(t, "s3cret", cfg.Database.Password)
}

func TestLoadRejectsVerificationWithoutJWKS(t *testing.T) {
	t.Setenv("AUTH_ENABLE_VERIFICATION", "true")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "v1")
	assert.Error(t, err)
}

func TestParseJWKSEndpoints(t *testing.T) {
	endpoints := parseJWKSEndpoints("https://a=https://a/jwks.json, https://b = https://b/jwks.json")
	assert.Equal(t, map[string]string{
		"https://a": "https://a/jwks.json",
		"https://b": "https://b/jwks.json",
	}, endpoints)

	assert.Empty(t, parseJWKSEndpoints(""))
}

func TestConnectionString(t *testing.T) {
	db := DatabaseConfig{
		Host: "h", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "disable",
	}
	assert.Equal(t, "host=h port=5433 user=u password=p dbname=d sslmode=disable", db.ConnectionString())
}
