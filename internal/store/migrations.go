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
		Name:    "create sessions and messages",
		SQL: `
			CREATE TABLE sessions (
				id            TEXT PRIMARY KEY,
				user_key      TEXT NOT NULL,
				active_intent TEXT NOT NULL DEFAULT '',
				turn_number   INTEGER NOT NULL DEFAULT 0,
				created_at    TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at    TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_sessions_updated ON sessions (updated_at);

			CREATE TABLE messages (
				seq         INTEGER PRIMARY KEY AUTOINCREMENT,
				id          TEXT NOT NULL,
				session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
				role        TEXT NOT NULL,
				content     TEXT NOT NULL,
				intent      TEXT NOT NULL DEFAULT '',
				timestamp   TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE UNIQUE INDEX idx_messages_id ON messages (session_id, id);
			CREATE INDEX idx_messages_session ON messages (session_id, seq);
		`,
	},
	{
		Version: 2,
		Name:    "create rate counters",
		SQL: `
			CREATE TABLE rate_counters (
				user_key     TEXT PRIMARY KEY,
				window_start TEXT NOT NULL,
				count        INTEGER NOT NULL DEFAULT 0
			);
		`,
	},
}
