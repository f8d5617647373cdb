package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/voyago/voyago/internal/domain"
)

// SessionStates remembers the last resolved/pending flight search per chat.
// The normalizer reads it for parameter inheritance on follow-up queries;
// the orchestrator writes it after each successful aggregation.
type SessionStates interface {
	Get(chatID string) (*domain.SessionState, error)
	Upsert(state domain.SessionState) error
}

// SQLiteSessionStates implements SessionStates backed by SQLite.
type SQLiteSessionStates struct {
	db *DB
}

// NewSQLiteSessionStates creates a session state store using the given database.
func NewSQLiteSessionStates(db *DB) *SQLiteSessionStates {
	return &SQLiteSessionStates{db: db}
}

// Get returns the session state for a chat, or nil if none exists yet.
func (s *SQLiteSessionStates) Get(chatID string) (*domain.SessionState, error) {
	var state domain.SessionState
	var last, pending sql.NullString
	var updatedAt string

	err := s.db.sql.QueryRow(
		`SELECT chat_id, last_flight_request, pending_flight_request, updated_at
		 FROM session_state WHERE chat_id = ?`, chatID,
	).Scan(&state.ChatID, &last, &pending, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session state: %w", err)
	}

	state.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	if last.Valid {
		state.LastFlightRequest = unmarshalRequest(last.String)
	}
	if pending.Valid {
		state.PendingFlightRequest = unmarshalRequest(pending.String)
	}
	return &state, nil
}

// Upsert inserts or replaces the state row for its chat.
func (s *SQLiteSessionStates) Upsert(state domain.SessionState) error {
	last, err := marshalRequest(state.LastFlightRequest)
	if err != nil {
		return err
	}
	pending, err := marshalRequest(state.PendingFlightRequest)
	if err != nil {
		return err
	}

	updatedAt := state.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err = s.db.sql.Exec(
		`INSERT INTO session_state (chat_id, last_flight_request, pending_flight_request, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(chat_id) DO UPDATE SET
			last_flight_request = excluded.last_flight_request,
			pending_flight_request = excluded.pending_flight_request,
			updated_at = excluded.updated_at`,
		state.ChatID, last, pending, updatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upserting session state: %w", err)
	}
	return nil
}

func marshalRequest(req *domain.SearchRequest) (sql.NullString, error) {
	if req == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(req)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encoding flight request: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalRequest(data string) *domain.SearchRequest {
	var req domain.SearchRequest
	if err := json.Unmarshal([]byte(data), &req); err != nil {
		return nil
	}
	return &req
}
