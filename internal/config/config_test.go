package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 18990, cfg.Gateway.Port)
	assert.Equal(t, "always", cfg.Providers.AwardPolicy)
	assert.Equal(t, "price", cfg.Search.SortBy)
	assert.Equal(t, "sqlite", cfg.Session.Store)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
gateway:
  port: 9999
providers:
  duffel:
    enabled: true
    apiKey: duffel_test_123
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Gateway.Port)
	assert.True(t, cfg.Providers.Duffel.Enabled)
	assert.Equal(t, "duffel_test_123", cfg.Providers.Duffel.APIKey)
	// untouched sections keep defaults
	assert.Equal(t, "https://api.duffel.com", cfg.Providers.Duffel.BaseURL)
	assert.Equal(t, "v2", cfg.Providers.Duffel.APIVersion)
	assert.Equal(t, "always", cfg.Providers.AwardPolicy)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "gateway: [not a map")
	_, err := Load(path)
	require.Error(t, err)

	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoad_ExpandsSensitiveEnvVars(t *testing.T) {
	t.Setenv("TEST_DUFFEL_KEY", "secret-from-env")
	path := writeConfig(t, `
providers:
  duffel:
    apiKey: ${TEST_DUFFEL_KEY}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-from-env", cfg.Providers.Duffel.APIKey)
}

func TestLoad_UnsetEnvVarLeftUnchanged(t *testing.T) {
	path := writeConfig(t, `
providers:
  seats:
    partnerKey: ${DEFINITELY_NOT_SET_ANYWHERE}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "${DEFINITELY_NOT_SET_ANYWHERE}", cfg.Providers.Seats.PartnerKey)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("VOYAGO_GATEWAY_PORT", "7777")
	t.Setenv("VOYAGO_AMADEUS_CLIENT_ID", "env-client")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Gateway.Port)
	assert.Equal(t, "env-client", cfg.Providers.Amadeus.ClientID)
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_BadValues(t *testing.T) {
	cfg := Defaults()
	cfg.Gateway.Port = 70000
	cfg.Providers.AwardPolicy = "sometimes"
	cfg.Search.SortBy = "vibes"
	cfg.Session.Store = "postgres"
	cfg.Logging.Level = "loud"

	issues := Validate(&cfg)
	paths := make([]string, 0, len(issues))
	for _, i := range issues {
		paths = append(paths, i.Path)
	}

	assert.Contains(t, paths, "gateway.port")
	assert.Contains(t, paths, "providers.awardPolicy")
	assert.Contains(t, paths, "search.sortBy")
	assert.Contains(t, paths, "session.store")
	assert.Contains(t, paths, "logging.level")
}

func TestValidate_EnabledProviderRequiresCredentials(t *testing.T) {
	cfg := Defaults()
	cfg.Providers.Seats.Enabled = true
	cfg.Providers.Amadeus.Enabled = true
	cfg.Providers.Duffel.Enabled = true

	issues := Validate(&cfg)
	paths := make([]string, 0, len(issues))
	for _, i := range issues {
		paths = append(paths, i.Path)
	}

	assert.Contains(t, paths, "providers.seats.partnerKey")
	assert.Contains(t, paths, "providers.amadeus.clientId")
	assert.Contains(t, paths, "providers.amadeus.clientSecret")
	assert.Contains(t, paths, "providers.duffel.apiKey")
}

func TestResolvePaths_HomeOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("VOYAGO_HOME", dir)

	paths, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, dir, paths.Base)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), paths.Config)
	assert.Equal(t, filepath.Join(dir, "data", "voyago.db"), paths.DB)

	require.NoError(t, paths.EnsureDirs())
	assert.DirExists(t, filepath.Join(dir, "data"))
	assert.DirExists(t, filepath.Join(dir, "logs"))
}
