package store

import (
	"time"

	"github.com/craftista/concierge/internal/domain"
	"github.com/craftista/concierge/internal/session"
)

// SQLiteSessionStore implements session.Store backed by SQLite.
type SQLiteSessionStore struct {
	db          *DB
	maxMessages int
}

var _ session.Store = (*SQLiteSessionStore)(nil)

// NewSQLiteSessionStore creates a session store using the given database.
// maxMessages <= 0 uses the default history window.
func NewSQLiteSessionStore(db *DB, maxMessages int) *SQLiteSessionStore {
	if maxMessages <= 0 {
		maxMessages = session.DefaultMaxMessages
	}
	return &SQLiteSessionStore{db: db, maxMessages: maxMessages}
}

// GetOrCreate returns the session with the given ID, creating it on first use.
func (s *SQLiteSessionStore) GetOrCreate(id string) *domain.ConversationSession {
	if sess := s.Get(id); sess != nil {
		return sess
	}

	now := time.Now()
	_, err := s.db.sql.Exec(
		`INSERT INTO sessions (id, user_key, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		id, id, now.Format(time.DateTime), now.Format(time.DateTime),
	)
	if err != nil {
		s.db.log.Error().Err(err).Str("session", id).Msg("failed to create session")
	}

	if sess := s.Get(id); sess != nil {
		return sess
	}
	return &domain.ConversationSession{ID: id, UserKey: id, CreatedAt: now, UpdatedAt: now}
}

// Get returns a session with its retained messages, or nil if not found.
func (s *SQLiteSessionStore) Get(id string) *domain.ConversationSession {
	var sess domain.ConversationSession
	var active string
	var createdAt, updatedAt string

	err := s.db.sql.QueryRow(
		`SELECT id, user_key, active_intent, turn_number, created_at, updated_at
		 FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.UserKey, &active, &sess.TurnNumber, &createdAt, &updatedAt)
	if err != nil {
		return nil
	}

	sess.ActiveIntent = domain.Intent(active)
	sess.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
	sess.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
	sess.Messages = s.loadMessages(id)
	return &sess
}

// Append adds a message. The unique (session_id, id) index makes a replayed
// append a no-op, giving retry idempotence.
func (s *SQLiteSessionStore) Append(sessionID string, msg domain.Message) {
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	res, err := s.db.sql.Exec(
		`INSERT INTO messages (id, session_id, role, content, intent, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id, id) DO NOTHING`,
		msg.ID, sessionID, msg.Role, msg.Content, string(msg.Intent), ts.Format(time.DateTime),
	)
	if err != nil {
		s.db.log.Error().Err(err).Str("session", sessionID).Msg("failed to append message")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Replayed message ID; nothing changed.
		return
	}

	if msg.Role == domain.RoleUser {
		_, _ = s.db.sql.Exec(
			`UPDATE sessions SET turn_number = turn_number + 1, updated_at = ? WHERE id = ?`,
			time.Now().Format(time.DateTime), sessionID,
		)
	} else {
		_, _ = s.db.sql.Exec(
			`UPDATE sessions SET updated_at = ? WHERE id = ?`,
			time.Now().Format(time.DateTime), sessionID,
		)
	}

	// Trim history beyond the retained window.
	_, _ = s.db.sql.Exec(
		`DELETE FROM messages WHERE session_id = ? AND seq NOT IN (
			SELECT seq FROM messages WHERE session_id = ? ORDER BY seq DESC LIMIT ?
		)`,
		sessionID, sessionID, s.maxMessages,
	)
}

// SetActiveIntent records the workflow-holding agent for a session.
func (s *SQLiteSessionStore) SetActiveIntent(sessionID string, it domain.Intent) {
	_, err := s.db.sql.Exec(
		`UPDATE sessions SET active_intent = ?, updated_at = ? WHERE id = ?`,
		string(it), time.Now().Format(time.DateTime), sessionID,
	)
	if err != nil {
		s.db.log.Error().Err(err).Str("session", sessionID).Msg("failed to set active intent")
	}
}

// EvictIdle deletes sessions idle longer than maxIdle.
func (s *SQLiteSessionStore) EvictIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle).Format(time.DateTime)
	res, err := s.db.sql.Exec(`DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		s.db.log.Error().Err(err).Msg("failed to evict idle sessions")
		return 0
	}
	n, _ := res.RowsAffected()
	return int(n)
}

// Count returns the number of live sessions.
func (s *SQLiteSessionStore) Count() int {
	var n int
	if err := s.db.sql.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0
	}
	return n
}

func (s *SQLiteSessionStore) loadMessages(sessionID string) []domain.Message {
	rows, err := s.db.sql.Query(
		`SELECT id, role, content, intent, timestamp
		 FROM messages WHERE session_id = ? ORDER BY seq`, sessionID,
	)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var msg domain.Message
		var intentStr, ts string
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &intentStr, &ts); err != nil {
			continue
		}
		msg.Intent = domain.Intent(intentStr)
		msg.Timestamp, _ = time.Parse(time.DateTime, ts)
		msgs = append(msgs, msg)
	}
	return msgs
}
