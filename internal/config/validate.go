package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Gateway.Port),
		})
	}

	validPolicies := []string{"always", "awardOnly"}
	if cfg.Providers.AwardPolicy != "" && !slices.Contains(validPolicies, cfg.Providers.AwardPolicy) {
		issues = append(issues, ValidationIssue{
			Path:    "providers.awardPolicy",
			Message: fmt.Sprintf("must be one of %v, got %q", validPolicies, cfg.Providers.AwardPolicy),
		})
	}

	if cfg.Providers.Seats.Enabled && cfg.Providers.Seats.PartnerKey == "" {
		issues = append(issues, ValidationIssue{
			Path:    "providers.seats.partnerKey",
			Message: "partner key is required when the seats provider is enabled",
		})
	}
	if cfg.Providers.Amadeus.Enabled {
		if cfg.Providers.Amadeus.ClientID == "" {
			issues = append(issues, ValidationIssue{
				Path:    "providers.amadeus.clientId",
				Message: "client id is required when the amadeus provider is enabled",
			})
		}
		if cfg.Providers.Amadeus.ClientSecret == "" {
			issues = append(issues, ValidationIssue{
				Path:    "providers.amadeus.clientSecret",
				Message: "client secret is required when the amadeus provider is enabled",
			})
		}
	}
	if cfg.Providers.Duffel.Enabled && cfg.Providers.Duffel.APIKey == "" {
		issues = append(issues, ValidationIssue{
			Path:    "providers.duffel.apiKey",
			Message: "api key is required when the duffel provider is enabled",
		})
	}

	for _, p := range []struct {
		path string
		sec  int
	}{
		{"providers.seats.timeoutSec", cfg.Providers.Seats.TimeoutSec},
		{"providers.amadeus.timeoutSec", cfg.Providers.Amadeus.TimeoutSec},
		{"providers.duffel.timeoutSec", cfg.Providers.Duffel.TimeoutSec},
	} {
		if p.sec < 0 {
			issues = append(issues, ValidationIssue{
				Path:    p.path,
				Message: fmt.Sprintf("timeout must not be negative, got %d", p.sec),
			})
		}
	}

	validSorts := []string{"price", "duration"}
	if cfg.Search.SortBy != "" && !slices.Contains(validSorts, cfg.Search.SortBy) {
		issues = append(issues, ValidationIssue{
			Path:    "search.sortBy",
			Message: fmt.Sprintf("must be one of %v, got %q", validSorts, cfg.Search.SortBy),
		})
	}

	validStores := []string{"sqlite", "memory"}
	if cfg.Session.Store != "" && !slices.Contains(validStores, cfg.Session.Store) {
		issues = append(issues, ValidationIssue{
			Path:    "session.store",
			Message: fmt.Sprintf("must be one of %v, got %q", validStores, cfg.Session.Store),
		})
	}

	if cfg.Registry.StaleRunningMinutes < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "registry.staleRunningMinutes",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Registry.StaleRunningMinutes),
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}
	validStyles := []string{"pretty", "json"}
	if cfg.Logging.Style != "" && !slices.Contains(validStyles, cfg.Logging.Style) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.style",
			Message: fmt.Sprintf("must be one of %v, got %q", validStyles, cfg.Logging.Style),
		})
	}

	return issues
}
