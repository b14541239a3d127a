package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// CommandHistory persists submitted command lines per user and returns
// the most recent ones first.
type CommandHistory interface {
	History(user string) ([]string, error)
	Append(user, line string) error
}

// MemoryHistory keeps up to limit lines per user in memory.
type MemoryHistory struct {
	mu    sync.Mutex
	limit int
	lines map[string][]string // oldest first
}

// NewMemoryHistory returns an empty in-memory history.
func NewMemoryHistory(limit int) *MemoryHistory {
	return &MemoryHistory{limit: limit, lines: make(map[string][]string)}
}

// History returns the user's lines, most recent first.
func (h *MemoryHistory) History(user string) ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	lines := h.lines[user]
	out := make([]string, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		out = append(out, lines[i])
	}
	return out, nil
}

// Append records line for user, dropping the oldest line past the limit.
func (h *MemoryHistory) Append(user, line string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	lines := append(h.lines[user], line)
	if h.limit > 0 && len(lines) > h.limit {
		lines = lines[len(lines)-h.limit:]
	}
	h.lines[user] = lines
	return nil
}

// SQLiteHistory stores command lines in a SQLite database.
type SQLiteHistory struct {
	db    *sql.DB
	limit int
}

const historySchema = `
CREATE TABLE IF NOT EXISTS command_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user TEXT NOT NULL,
	command TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_command_history_user ON command_history(user, id);
`

// OpenSQLiteHistory opens or creates the database at path.  ":memory:"
// gives a private in-memory database.
func OpenSQLiteHistory(ctx context.Context, path string, limit int) (*SQLiteHistory, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// a single connection keeps ":memory:" on one database and
	// serialises writers
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &SQLiteHistory{db: db, limit: limit}, nil
}

// History returns up to limit lines for user, most recent first.
func (h *SQLiteHistory) History(user string) ([]string, error) {
	rows, err := h.db.Query(
		`SELECT command FROM command_history WHERE user = ? ORDER BY id DESC LIMIT ?`,
		user, h.limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, line)
	}
	return out, rows.Err()
}

// Append records line for user and prunes the user's rows past limit.
func (h *SQLiteHistory) Append(user, line string) error {
	tx, err := h.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(
		`INSERT INTO command_history (user, command, created_at) VALUES (?, ?, ?)`,
		user, line, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	if _, err := tx.Exec(
		`DELETE FROM command_history WHERE user = ? AND id NOT IN (
			SELECT id FROM command_history WHERE user = ? ORDER BY id DESC LIMIT ?)`,
		user, user, h.limit); err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	return tx.Commit()
}

// Close closes the database.
func (h *SQLiteHistory) Close() error { return h.db.Close() }
