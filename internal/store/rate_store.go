package store

import (
	"context"
	"time"

	"github.com/craftista/concierge/internal/ratelimit"
)

// SQLiteRateStore implements ratelimit.Store on the shared database, so the
// request budget holds across process instances sharing one data file.
type SQLiteRateStore struct {
	db *DB
}

var _ ratelimit.Store = (*SQLiteRateStore)(nil)

// NewSQLiteRateStore creates a rate counter store using the given database.
func NewSQLiteRateStore(db *DB) *SQLiteRateStore {
	return &SQLiteRateStore{db: db}
}

// Incr bumps the counter for key in the current window. The whole
// increment-or-reset is a single UPSERT, so concurrent callers can never
// both read a stale count; lazy window reset happens inside the same
// statement.
func (s *SQLiteRateStore) Incr(ctx context.Context, key string, windowStart time.Time) (int64, error) {
	ws := windowStart.UTC().Format(time.RFC3339)

	var count int64
	err := s.db.sql.QueryRowContext(ctx, `
		INSERT INTO rate_counters (user_key, window_start, count)
		VALUES (?, ?, 1)
		ON CONFLICT(user_key) DO UPDATE SET
			count = CASE WHEN rate_counters.window_start = excluded.window_start
				THEN rate_counters.count + 1 ELSE 1 END,
			window_start = excluded.window_start
		RETURNING count`,
		key, ws,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
