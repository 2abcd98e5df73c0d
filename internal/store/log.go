// Package store records every processed message to a SQLite database.
// The log is relaybot's history: batch replay and offset resolution
// iterate it oldest-first through the platform.History interface.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hkuds/relaybot/internal/platform"

	_ "modernc.org/sqlite"
)

// MessageLog is a SQLite-backed message archive. Safe for concurrent use;
// database/sql serializes access to the underlying connection pool.
type MessageLog struct {
	db *sql.DB
}

// Open opens (or creates) the message log at dbPath.
func Open(dbPath string) (*MessageLog, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			account TEXT NOT NULL,
			source TEXT NOT NULL,
			message_id INTEGER NOT NULL,
			chat_type TEXT NOT NULL DEFAULT '',
			chat_title TEXT NOT NULL DEFAULT '',
			sender_id INTEGER NOT NULL DEFAULT 0,
			sender_username TEXT NOT NULL DEFAULT '',
			sender_bot INTEGER NOT NULL DEFAULT 0,
			text TEXT NOT NULL DEFAULT '',
			has_media INTEGER NOT NULL DEFAULT 0,
			photo INTEGER NOT NULL DEFAULT 0,
			document INTEGER NOT NULL DEFAULT 0,
			mime TEXT NOT NULL DEFAULT '',
			file_name TEXT NOT NULL DEFAULT '',
			sticker INTEGER NOT NULL DEFAULT 0,
			video INTEGER NOT NULL DEFAULT 0,
			web_preview INTEGER NOT NULL DEFAULT 0,
			forwarded INTEGER NOT NULL DEFAULT 0,
			observed_at INTEGER NOT NULL,
			UNIQUE(account, source, message_id)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create messages table: %w", err)
	}

	return &MessageLog{db: db}, nil
}

// Record archives a message. Re-observing the same (account, source,
// message id) replaces the previous row, so reconnect replays of the
// update stream stay idempotent.
func (l *MessageLog) Record(ctx context.Context, account string, msg platform.Message) error {
	var m platform.Media
	if msg.Media != nil {
		m = *msg.Media
	}
	observed := msg.Timestamp
	if observed.IsZero() {
		observed = time.Now()
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO messages (
			account, source, message_id, chat_type, chat_title,
			sender_id, sender_username, sender_bot, text,
			has_media, photo, document, mime, file_name,
			sticker, video, web_preview, forwarded, observed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		account, msg.Source, msg.ID, string(msg.ChatType), msg.ChatTitle,
		msg.SenderID, msg.SenderUsername, boolToInt(msg.SenderBot), msg.Text,
		boolToInt(msg.Media != nil), boolToInt(m.Photo), boolToInt(m.Document), m.MIME, m.FileName,
		boolToInt(m.Sticker), boolToInt(m.Video), boolToInt(m.WebPreview), boolToInt(msg.Forwarded),
		observed.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record message %d from %s: %w", msg.ID, msg.Source, err)
	}
	return nil
}

// Messages implements platform.History: a fresh oldest-first cursor over
// the source's recorded messages.
func (l *MessageLog) Messages(ctx context.Context, account, source string) (platform.MessageIter, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT message_id, chat_type, chat_title,
			sender_id, sender_username, sender_bot, text,
			has_media, photo, document, mime, file_name,
			sticker, video, web_preview, forwarded, observed_at
		FROM messages
		WHERE account = ? AND source = ?
		ORDER BY message_id ASC
	`, account, source)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for %s: %w", source, err)
	}
	return &logIter{rows: rows, source: source}, nil
}

// Count returns the number of recorded messages for a source.
func (l *MessageLog) Count(ctx context.Context, account, source string) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE account = ? AND source = ?`,
		account, source).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count history for %s: %w", source, err)
	}
	return n, nil
}

// Close closes the underlying database.
func (l *MessageLog) Close() error {
	return l.db.Close()
}

type logIter struct {
	rows   *sql.Rows
	source string
	cur    platform.Message
	err    error
}

func (it *logIter) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}
	if ctx.Err() != nil {
		it.err = ctx.Err()
		return false
	}
	if !it.rows.Next() {
		it.err = it.rows.Err()
		return false
	}

	var msg platform.Message
	var chatType, mime, fileName string
	var hasMedia, photo, document, sticker, video, webPreview, senderBot, forwarded int
	var observedAt int64
	it.err = it.rows.Scan(
		&msg.ID, &chatType, &msg.ChatTitle,
		&msg.SenderID, &msg.SenderUsername, &senderBot, &msg.Text,
		&hasMedia, &photo, &document, &mime, &fileName,
		&sticker, &video, &webPreview, &forwarded, &observedAt,
	)
	if it.err != nil {
		return false
	}

	msg.Source = it.source
	msg.ChatType = platform.ChatType(chatType)
	msg.SenderBot = senderBot != 0
	msg.Forwarded = forwarded != 0
	msg.Timestamp = time.Unix(observedAt, 0)
	if hasMedia != 0 {
		msg.Media = &platform.Media{
			Photo:      photo != 0,
			Document:   document != 0,
			MIME:       mime,
			FileName:   fileName,
			Sticker:    sticker != 0,
			Video:      video != 0,
			WebPreview: webPreview != 0,
		}
	}
	it.cur = msg
	return true
}

func (it *logIter) Value() platform.Message {
	return it.cur
}

func (it *logIter) Err() error {
	return it.err
}

func (it *logIter) Close() error {
	return it.rows.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
