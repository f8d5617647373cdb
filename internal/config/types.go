package config

// Config is the root configuration for voyago.
type Config struct {
	Gateway   GatewayConfig   `yaml:"gateway,omitempty"`
	Providers ProvidersConfig `yaml:"providers,omitempty"`
	Search    SearchConfig    `yaml:"search,omitempty"`
	Session   SessionConfig   `yaml:"session,omitempty"`
	Registry  RegistryConfig  `yaml:"registry,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
}

// GatewayConfig controls the HTTP gateway server.
type GatewayConfig struct {
	Port int         `yaml:"port,omitempty"`
	Bind string      `yaml:"bind,omitempty"` // listen host, default 127.0.0.1
	Auth GatewayAuth `yaml:"auth,omitempty"`
}

// GatewayAuth configures gateway authentication.
type GatewayAuth struct {
	Token string `yaml:"token,omitempty"` // bearer token; empty disables auth
}

// ProvidersConfig holds per-provider credentials and endpoints, plus the
// award inclusion policy.
type ProvidersConfig struct {
	// AwardPolicy decides when the award client joins a search:
	// "always" (default) or "awardOnly" (only when the request asks for awards).
	AwardPolicy string `yaml:"awardPolicy,omitempty"`

	Seats   SeatsConfig   `yaml:"seats,omitempty"`
	Amadeus AmadeusConfig `yaml:"amadeus,omitempty"`
	Duffel  DuffelConfig  `yaml:"duffel,omitempty"`
}

// SeatsConfig configures the award inventory partner API.
type SeatsConfig struct {
	Enabled    bool   `yaml:"enabled,omitempty"`
	BaseURL    string `yaml:"baseUrl,omitempty"`
	PartnerKey string `yaml:"partnerKey,omitempty"`
	TimeoutSec int    `yaml:"timeoutSec,omitempty"`
}

// AmadeusConfig configures the OAuth2 client-credentials cash-fare API.
type AmadeusConfig struct {
	Enabled      bool   `yaml:"enabled,omitempty"`
	BaseURL      string `yaml:"baseUrl,omitempty"`
	Environment  string `yaml:"environment,omitempty"` // token row key, e.g. "amadeus-test"
	ClientID     string `yaml:"clientId,omitempty"`
	ClientSecret string `yaml:"clientSecret,omitempty"`
	TimeoutSec   int    `yaml:"timeoutSec,omitempty"`
}

// DuffelConfig configures the static-bearer-key cash-fare API.
type DuffelConfig struct {
	Enabled    bool   `yaml:"enabled,omitempty"`
	BaseURL    string `yaml:"baseUrl,omitempty"`
	APIKey     string `yaml:"apiKey,omitempty"`
	APIVersion string `yaml:"apiVersion,omitempty"`
	TimeoutSec int    `yaml:"timeoutSec,omitempty"`
}

// SearchConfig tunes aggregation behavior.
type SearchConfig struct {
	SortBy string `yaml:"sortBy,omitempty"` // "price" | "duration"
}

// SessionConfig selects the session state backend.
type SessionConfig struct {
	Store string `yaml:"store,omitempty"` // "sqlite" | "memory"
}

// RegistryConfig tunes the tool-call registry.
type RegistryConfig struct {
	// StaleRunningMinutes: running rows older than this are reaped to
	// timeout. Zero disables the reaper.
	StaleRunningMinutes int `yaml:"staleRunningMinutes,omitempty"`
	ReapIntervalMinutes int `yaml:"reapIntervalMinutes,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	Style string `yaml:"style,omitempty"` // "pretty" | "json"
}
