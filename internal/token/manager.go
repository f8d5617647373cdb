// Package token manages OAuth2 bearer tokens for providers that use the
// client-credentials grant. Tokens are cached as database rows (one per
// auth environment), refreshed through a single-flight group so concurrent
// callers collapse into one outstanding refresh.
package token

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"github.com/voyago/voyago/internal/domain"
	"github.com/voyago/voyago/internal/logging"
	"github.com/voyago/voyago/internal/store"
)

// DefaultSafetyBuffer is how long before expiry a cached token is treated
// as already expired. Providers reject tokens mid-request otherwise.
const DefaultSafetyBuffer = 60 * time.Second

// AuthenticationError reports a failed token acquisition. It is scoped to
// one provider environment and never fatal to a whole search.
type AuthenticationError struct {
	Environment string
	Err         error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed for %s: %v", e.Environment, e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// Manager acquires, persists, and refreshes provider tokens.
type Manager struct {
	tokens *store.TokenStore
	log    *logging.Logger
	buffer time.Duration
	group  singleflight.Group

	mu        sync.RWMutex
	endpoints map[string]*clientcredentials.Config
}

// NewManager creates a token manager over the given token store.
func NewManager(tokens *store.TokenStore, log *logging.Logger) *Manager {
	return &Manager{
		tokens:    tokens,
		log:       log.Sub("token"),
		buffer:    DefaultSafetyBuffer,
		endpoints: make(map[string]*clientcredentials.Config),
	}
}

// SetSafetyBuffer overrides the expiry safety buffer (tests only).
func (m *Manager) SetSafetyBuffer(d time.Duration) { m.buffer = d }

// RegisterEnvironment wires an auth environment to its OAuth2
// client-credentials endpoint.
func (m *Manager) RegisterEnvironment(environment string, cfg clientcredentials.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endpoints[environment] = &cfg
}

// Token returns a bearer token for the environment that is guaranteed to
// remain valid for at least the safety buffer. A persisted token inside
// the buffer triggers a refresh; concurrent refreshes for one environment
// collapse into a single network call.
func (m *Manager) Token(ctx context.Context, environment string) (domain.ProviderToken, error) {
	cached, err := m.tokens.Get(environment)
	if err != nil {
		return domain.ProviderToken{}, &AuthenticationError{Environment: environment, Err: err}
	}
	if cached != nil && cached.ValidFor(m.buffer) {
		return *cached, nil
	}

	v, err, _ := m.group.Do(environment, func() (any, error) {
		// Re-check under the flight: a sibling caller may have refreshed
		// while we waited to enter.
		cached, err := m.tokens.Get(environment)
		if err != nil {
			return nil, err
		}
		if cached != nil && cached.ValidFor(m.buffer) {
			return *cached, nil
		}
		return m.refresh(ctx, environment)
	})
	if err != nil {
		return domain.ProviderToken{}, &AuthenticationError{Environment: environment, Err: err}
	}
	return v.(domain.ProviderToken), nil
}

// refresh performs the client-credentials grant and upserts the new token.
// A benign race producing two valid tokens resolves last-write-wins; a
// not-yet-expired stale token remains valid to use.
func (m *Manager) refresh(ctx context.Context, environment string) (domain.ProviderToken, error) {
	m.mu.RLock()
	cfg, ok := m.endpoints[environment]
	m.mu.RUnlock()
	if !ok {
		return domain.ProviderToken{}, fmt.Errorf("unknown auth environment %q", environment)
	}

	m.log.Debug().Str("environment", environment).Msg("refreshing provider token")

	oauthTok, err := cfg.Token(ctx)
	if err != nil {
		return domain.ProviderToken{}, fmt.Errorf("client credentials grant: %w", err)
	}

	tok := domain.ProviderToken{
		Environment: environment,
		AccessToken: oauthTok.AccessToken,
		TokenType:   oauthTok.TokenType,
		ExpiresAt:   oauthTok.Expiry,
	}
	if tok.TokenType == "" {
		tok.TokenType = "Bearer"
	}

	if err := m.tokens.Upsert(tok); err != nil {
		return domain.ProviderToken{}, err
	}

	m.log.Info().
		Str("environment", environment).
		Time("expiresAt", tok.ExpiresAt).
		Msg("provider token refreshed")
	return tok, nil
}
