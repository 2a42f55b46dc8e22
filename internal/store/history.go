package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"sigil/internal/domain"
)

// HistoryFilename is the SQLite database holding opened messages.
const HistoryFilename = "history.db"

const historySchema = `
CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	sender_id TEXT NOT NULL,
	text TEXT NOT NULL,
	timestamp_ms INTEGER NOT NULL,
	local_origin INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp_ms);
`

// HistoryDB is a domain.MessageStore backed by SQLite. Rows carry only the
// opened text and metadata, never key material.
type HistoryDB struct {
	db *sql.DB
}

// OpenHistory opens or creates the history database at path.
func OpenHistory(path string) (*HistoryDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("history: create dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	// One writer at a time keeps SQLite from returning SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: set WAL mode: %w", err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}
	return &HistoryDB{db: db}, nil
}

// Close releases the database handle.
func (h *HistoryDB) Close() error { return h.db.Close() }

// SaveMessage records msg. Saving the same id twice keeps the latest copy.
func (h *HistoryDB) SaveMessage(ctx context.Context, msg domain.PlainMessage) error {
	if msg.ID == "" {
		return errors.New("history: message id is empty")
	}
	_, err := h.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO messages (id, sender_id, text, timestamp_ms, local_origin)
		 VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.SenderID.String(), msg.Text, msg.Timestamp.UnixMilli(), msg.IsLocalOrigin,
	)
	if err != nil {
		return fmt.Errorf("history: save message: %w", err)
	}
	return nil
}

// ListMessages returns the newest limit messages in chronological order.
// A non-positive limit returns all of them.
func (h *HistoryDB) ListMessages(ctx context.Context, limit int) ([]domain.PlainMessage, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, sender_id, text, timestamp_ms, local_origin FROM (
			SELECT rowid AS seq, id, sender_id, text, timestamp_ms, local_origin
			FROM messages ORDER BY timestamp_ms DESC, seq DESC LIMIT ?
		 ) ORDER BY timestamp_ms ASC, seq ASC`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: list messages: %w", err)
	}
	defer rows.Close()

	var out []domain.PlainMessage
	for rows.Next() {
		var (
			msg    domain.PlainMessage
			sender string
			ts     int64
		)
		if err := rows.Scan(&msg.ID, &sender, &msg.Text, &ts, &msg.IsLocalOrigin); err != nil {
			return nil, fmt.Errorf("history: scan message: %w", err)
		}
		msg.SenderID = domain.UserID(sender)
		msg.Timestamp = time.UnixMilli(ts).UTC()
		out = append(out, msg)
	}
	return out, rows.Err()
}

// DeleteMessages empties the history.
func (h *HistoryDB) DeleteMessages(ctx context.Context) error {
	if _, err := h.db.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("history: delete messages: %w", err)
	}
	return nil
}

// Compile-time assertion that HistoryDB implements domain.MessageStore.
var _ domain.MessageStore = (*HistoryDB)(nil)
