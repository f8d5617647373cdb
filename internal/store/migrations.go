package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create tool_calls",
		SQL: `
			CREATE TABLE tool_calls (
				id           TEXT PRIMARY KEY,
				chat_id      TEXT NOT NULL,
				tool_name    TEXT NOT NULL,
				status       TEXT NOT NULL DEFAULT 'queued',
				request      TEXT NOT NULL,
				response     TEXT,
				error        TEXT,
				dedupe_key   TEXT NOT NULL,
				created_at   TEXT NOT NULL,
				started_at   TEXT,
				finished_at  TEXT
			);

			-- The at-most-one-concurrent-execution guarantee: uniqueness of
			-- the dedupe key is enforced only while a row is non-terminal,
			-- so finished searches never block a rerun.
			CREATE UNIQUE INDEX idx_tool_calls_active_dedupe
				ON tool_calls (dedupe_key)
				WHERE status IN ('queued', 'running');

			CREATE INDEX idx_tool_calls_chat ON tool_calls (chat_id, created_at);
			CREATE INDEX idx_tool_calls_status ON tool_calls (status);
		`,
	},
	{
		Version: 2,
		Name:    "create provider_tokens and session_state",
		SQL: `
			CREATE TABLE provider_tokens (
				environment  TEXT PRIMARY KEY,
				access_token TEXT NOT NULL,
				token_type   TEXT NOT NULL DEFAULT 'Bearer',
				expires_at   TEXT NOT NULL
			);

			CREATE TABLE session_state (
				chat_id                 TEXT PRIMARY KEY,
				last_flight_request     TEXT,
				pending_flight_request  TEXT,
				updated_at              TEXT NOT NULL
			);
		`,
	},
}
