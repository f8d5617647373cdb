// Package config loads and validates voyago configuration.
package config

import (
	"fmt"
	"time"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Gateway: GatewayConfig{
			Port: 18990,
			Bind: "127.0.0.1",
		},
		Providers: ProvidersConfig{
			AwardPolicy: "always",
			Seats: SeatsConfig{
				BaseURL:    "https://partner.seats.aero",
				TimeoutSec: 10,
			},
			Amadeus: AmadeusConfig{
				BaseURL:     "https://test.api.amadeus.com",
				Environment: "amadeus-test",
				TimeoutSec:  10,
			},
			Duffel: DuffelConfig{
				BaseURL:    "https://api.duffel.com",
				APIVersion: "v2",
				TimeoutSec: 10,
			},
		},
		Search: SearchConfig{
			SortBy: "price",
		},
		Session: SessionConfig{
			Store: "sqlite",
		},
		Registry: RegistryConfig{
			StaleRunningMinutes: 15,
			ReapIntervalMinutes: 5,
		},
		Logging: LoggingConfig{
			Level: "info",
			Style: "pretty",
		},
	}
}

// Timeout converts a per-provider timeout to a duration, falling back to 10s.
func Timeout(sec int) time.Duration {
	if sec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(sec) * time.Second
}
