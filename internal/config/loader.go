package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so keys and secrets can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.Gateway.Auth.Token = expandEnvVars(cfg.Gateway.Auth.Token)
	cfg.Providers.Seats.PartnerKey = expandEnvVars(cfg.Providers.Seats.PartnerKey)
	cfg.Providers.Amadeus.ClientID = expandEnvVars(cfg.Providers.Amadeus.ClientID)
	cfg.Providers.Amadeus.ClientSecret = expandEnvVars(cfg.Providers.Amadeus.ClientSecret)
	cfg.Providers.Duffel.APIKey = expandEnvVars(cfg.Providers.Duffel.APIKey)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// applyDefaults fills zero-value fields with sensible defaults after a
// partial config file overwrote them.
func applyDefaults(cfg *Config) {
	d := Defaults()
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = d.Gateway.Port
	}
	if cfg.Gateway.Bind == "" {
		cfg.Gateway.Bind = d.Gateway.Bind
	}
	if cfg.Providers.AwardPolicy == "" {
		cfg.Providers.AwardPolicy = d.Providers.AwardPolicy
	}
	if cfg.Providers.Seats.BaseURL == "" {
		cfg.Providers.Seats.BaseURL = d.Providers.Seats.BaseURL
	}
	if cfg.Providers.Amadeus.BaseURL == "" {
		cfg.Providers.Amadeus.BaseURL = d.Providers.Amadeus.BaseURL
	}
	if cfg.Providers.Amadeus.Environment == "" {
		cfg.Providers.Amadeus.Environment = d.Providers.Amadeus.Environment
	}
	if cfg.Providers.Duffel.BaseURL == "" {
		cfg.Providers.Duffel.BaseURL = d.Providers.Duffel.BaseURL
	}
	if cfg.Providers.Duffel.APIVersion == "" {
		cfg.Providers.Duffel.APIVersion = d.Providers.Duffel.APIVersion
	}
	if cfg.Search.SortBy == "" {
		cfg.Search.SortBy = d.Search.SortBy
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = d.Session.Store
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
	if cfg.Logging.Style == "" {
		cfg.Logging.Style = d.Logging.Style
	}
}

// applyEnvOverrides reads VOYAGO_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VOYAGO_GATEWAY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.Port = port
		}
	}
	if v := os.Getenv("VOYAGO_GATEWAY_TOKEN"); v != "" {
		cfg.Gateway.Auth.Token = v
	}
	if v := os.Getenv("VOYAGO_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("VOYAGO_SEATS_PARTNER_KEY"); v != "" {
		cfg.Providers.Seats.PartnerKey = v
	}
	if v := os.Getenv("VOYAGO_AMADEUS_CLIENT_ID"); v != "" {
		cfg.Providers.Amadeus.ClientID = v
	}
	if v := os.Getenv("VOYAGO_AMADEUS_CLIENT_SECRET"); v != "" {
		cfg.Providers.Amadeus.ClientSecret = v
	}
	if v := os.Getenv("VOYAGO_DUFFEL_API_KEY"); v != "" {
		cfg.Providers.Duffel.APIKey = v
	}
}
