package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/voyago/voyago/internal/domain"
)

// ErrNotFound is returned when no tool call exists for the given id.
var ErrNotFound = errors.New("tool call not found")

// ErrInvalidTransition is returned when a status change would violate the
// lifecycle (e.g. mutating a terminal row).
var ErrInvalidTransition = errors.New("invalid tool call transition")

// RegistryError wraps a persistence failure inside the tool-call registry.
// These are never swallowed: losing the audit/dedupe guarantee silently is
// worse than a loud failure.
type RegistryError struct {
	Op  string
	Err error
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("registry %s: %v", e.Op, e.Err)
}

func (e *RegistryError) Unwrap() error { return e.Err }

// ToolCallStore is the persistent tool-call registry. Rows move through
// queued → running → {succeeded|failed|timeout|canceled} and become
// immutable once terminal.
type ToolCallStore struct {
	db *DB
}

// NewToolCallStore creates a registry using the given database.
func NewToolCallStore(db *DB) *ToolCallStore {
	return &ToolCallStore{db: db}
}

const toolCallColumns = `id, chat_id, tool_name, status, request, response, error, dedupe_key, created_at, started_at, finished_at`

// Record inserts a queued tool call, or returns the existing non-terminal
// row carrying the same dedupe key. The check-and-insert is atomic: a
// partial unique index on (dedupe_key) over non-terminal rows rejects the
// second concurrent insert at the database, not in process memory.
// The second return value reports whether an existing row was reused.
func (s *ToolCallStore) Record(chatID, toolName string, request json.RawMessage, dedupeKey string) (*domain.ToolCall, bool, error) {
	tc := domain.ToolCall{
		ID:        uuid.New().String(),
		ChatID:    chatID,
		ToolName:  toolName,
		Status:    domain.StatusQueued,
		Request:   request,
		DedupeKey: dedupeKey,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.sql.Exec(
		`INSERT INTO tool_calls (id, chat_id, tool_name, status, request, dedupe_key, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tc.ID, tc.ChatID, tc.ToolName, string(tc.Status), string(tc.Request),
		tc.DedupeKey, tc.CreatedAt.Format(time.RFC3339Nano),
	)
	if err == nil {
		return &tc, false, nil
	}
	if !isUniqueViolation(err) {
		return nil, false, &RegistryError{Op: "record", Err: err}
	}

	// Lost the race (or a duplicate submission): hand back the in-flight row.
	existing, err := s.activeByDedupeKey(dedupeKey)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		// The competing row went terminal between our insert and select;
		// retry the insert once.
		return s.Record(chatID, toolName, request, dedupeKey)
	}
	return existing, true, nil
}

// Get returns a tool call by id.
func (s *ToolCallStore) Get(id string) (*domain.ToolCall, error) {
	row := s.db.sql.QueryRow(
		`SELECT `+toolCallColumns+` FROM tool_calls WHERE id = ?`, id,
	)
	return scanToolCall(row)
}

// ListByChat returns the most recent tool calls for a chat, newest first.
func (s *ToolCallStore) ListByChat(chatID string, limit int) ([]domain.ToolCall, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.sql.Query(
		`SELECT `+toolCallColumns+` FROM tool_calls
		 WHERE chat_id = ? ORDER BY created_at DESC LIMIT ?`, chatID, limit,
	)
	if err != nil {
		return nil, &RegistryError{Op: "list", Err: err}
	}
	defer rows.Close()

	var calls []domain.ToolCall
	for rows.Next() {
		tc, err := scanToolCall(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, *tc)
	}
	return calls, rows.Err()
}

// MarkRunning transitions queued → running and stamps started_at.
func (s *ToolCallStore) MarkRunning(id string) error {
	res, err := s.db.sql.Exec(
		`UPDATE tool_calls SET status = ?, started_at = ?
		 WHERE id = ? AND status = ?`,
		string(domain.StatusRunning), time.Now().UTC().Format(time.RFC3339Nano),
		id, string(domain.StatusQueued),
	)
	return s.checkTransition(res, err, id, "mark running")
}

// MarkSucceeded transitions running → succeeded and persists the response.
func (s *ToolCallStore) MarkSucceeded(id string, response json.RawMessage) error {
	return s.finish(id, domain.StatusSucceeded, string(response), "")
}

// MarkFailed transitions running → failed and records the error message.
func (s *ToolCallStore) MarkFailed(id string, errMsg string) error {
	return s.finish(id, domain.StatusFailed, "", errMsg)
}

// MarkTimeout transitions running → timeout.
func (s *ToolCallStore) MarkTimeout(id string) error {
	return s.finish(id, domain.StatusTimeout, "", "")
}

// MarkCanceled transitions a non-terminal row to canceled.
func (s *ToolCallStore) MarkCanceled(id string) error {
	res, err := s.db.sql.Exec(
		`UPDATE tool_calls SET status = ?, finished_at = ?
		 WHERE id = ? AND status IN (?, ?)`,
		string(domain.StatusCanceled), time.Now().UTC().Format(time.RFC3339Nano),
		id, string(domain.StatusQueued), string(domain.StatusRunning),
	)
	return s.checkTransition(res, err, id, "mark canceled")
}

// ReapStale transitions running rows started before now-olderThan into
// timeout. It exists so a crashed process cannot hold a dedupe key forever.
// Returns the number of rows reaped.
func (s *ToolCallStore) ReapStale(olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339Nano)
	res, err := s.db.sql.Exec(
		`UPDATE tool_calls SET status = ?, finished_at = ?, error = 'reaped: stale running row'
		 WHERE status = ? AND started_at < ?`,
		string(domain.StatusTimeout), time.Now().UTC().Format(time.RFC3339Nano),
		string(domain.StatusRunning), cutoff,
	)
	if err != nil {
		return 0, &RegistryError{Op: "reap", Err: err}
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.db.log.Warn().Int64("count", n).Msg("reaped stale running tool calls")
	}
	return int(n), nil
}

// finish performs a running → terminal transition.
func (s *ToolCallStore) finish(id string, status domain.ToolCallStatus, response, errMsg string) error {
	res, err := s.db.sql.Exec(
		`UPDATE tool_calls SET status = ?, response = NULLIF(?, ''), error = NULLIF(?, ''), finished_at = ?
		 WHERE id = ? AND status = ?`,
		string(status), response, errMsg, time.Now().UTC().Format(time.RFC3339Nano),
		id, string(domain.StatusRunning),
	)
	return s.checkTransition(res, err, id, "finish "+string(status))
}

func (s *ToolCallStore) checkTransition(res sql.Result, err error, id, op string) error {
	if err != nil {
		return &RegistryError{Op: op, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &RegistryError{Op: op, Err: err}
	}
	if n == 0 {
		// Either the row is missing or it is not in the required state.
		if _, getErr := s.Get(id); errors.Is(getErr, ErrNotFound) {
			return &RegistryError{Op: op, Err: ErrNotFound}
		}
		return &RegistryError{Op: op, Err: ErrInvalidTransition}
	}
	return nil
}

// activeByDedupeKey returns the non-terminal row for a dedupe key, if any.
func (s *ToolCallStore) activeByDedupeKey(key string) (*domain.ToolCall, error) {
	row := s.db.sql.QueryRow(
		`SELECT `+toolCallColumns+` FROM tool_calls
		 WHERE dedupe_key = ? AND status IN (?, ?)`,
		key, string(domain.StatusQueued), string(domain.StatusRunning),
	)
	tc, err := scanToolCall(row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return tc, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanToolCall(row rowScanner) (*domain.ToolCall, error) {
	var tc domain.ToolCall
	var status, createdAt string
	var request string
	var response, errMsg, startedAt, finishedAt sql.NullString

	err := row.Scan(
		&tc.ID, &tc.ChatID, &tc.ToolName, &status, &request, &response,
		&errMsg, &tc.DedupeKey, &createdAt, &startedAt, &finishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &RegistryError{Op: "scan", Err: err}
	}

	tc.Status = domain.ToolCallStatus(status)
	tc.Request = json.RawMessage(request)
	if response.Valid {
		tc.Response = json.RawMessage(response.String)
	}
	if errMsg.Valid {
		tc.Error = errMsg.String
	}
	tc.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if startedAt.Valid {
		t, _ := time.Parse(time.RFC3339Nano, startedAt.String)
		tc.StartedAt = &t
	}
	if finishedAt.Valid {
		t, _ := time.Parse(time.RFC3339Nano, finishedAt.String)
		tc.FinishedAt = &t
	}
	return &tc, nil
}

// isUniqueViolation reports whether err came from the partial unique index.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
