package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/voyago/voyago/internal/domain"
)

// TokenStore persists OAuth bearer tokens, one row per auth environment.
// The token manager is its only writer; writes are upsert-on-refresh, so a
// benign refresh race resolves last-write-wins without locking.
type TokenStore struct {
	db *DB
}

// NewTokenStore creates a token store using the given database.
func NewTokenStore(db *DB) *TokenStore {
	return &TokenStore{db: db}
}

// Get returns the persisted token for an environment, or nil if none exists.
func (s *TokenStore) Get(environment string) (*domain.ProviderToken, error) {
	var tok domain.ProviderToken
	var expiresAt string

	err := s.db.sql.QueryRow(
		`SELECT environment, access_token, token_type, expires_at
		 FROM provider_tokens WHERE environment = ?`, environment,
	).Scan(&tok.Environment, &tok.AccessToken, &tok.TokenType, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading provider token: %w", err)
	}

	tok.ExpiresAt, _ = time.Parse(time.RFC3339Nano, expiresAt)
	return &tok, nil
}

// Upsert inserts or replaces the token row for its environment.
func (s *TokenStore) Upsert(tok domain.ProviderToken) error {
	_, err := s.db.sql.Exec(
		`INSERT INTO provider_tokens (environment, access_token, token_type, expires_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(environment) DO UPDATE SET
			access_token = excluded.access_token,
			token_type = excluded.token_type,
			expires_at = excluded.expires_at`,
		tok.Environment, tok.AccessToken, tok.TokenType,
		tok.ExpiresAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upserting provider token: %w", err)
	}
	return nil
}
