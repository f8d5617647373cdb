package domain

import "time"

// ProviderToken is a persisted OAuth2 bearer token for one auth environment
// (e.g. "amadeus-test", "amadeus-prod"). Owned exclusively by the token
// manager; mutated only via upsert-on-refresh.
type ProviderToken struct {
	Environment string    `json:"environment"`
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// ValidFor reports whether the token remains usable for at least buffer
// beyond now. Callers must never receive a token inside the buffer.
func (t ProviderToken) ValidFor(buffer time.Duration) bool {
	return time.Until(t.ExpiresAt) > buffer
}
