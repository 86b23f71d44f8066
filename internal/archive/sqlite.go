// Package archive persists confirmed conversations to a local SQLite
// database so finished drafts survive session-store eviction and can be
// inspected or replayed later.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/catturtle123/discord-github-issue-bot/internal/agent"
	"github.com/catturtle123/discord-github-issue-bot/pkg/logging"
)

// Record is a confirmed conversation as stored in the archive.
type Record struct {
	ConversationID string
	OriginatorID   string
	Title          string
	Body           string
	Category       agent.Category
	Domain         agent.Domain
	AutoResolve    bool
	Confidence     agent.Confidence
	TurnCount      int
	ArchivedAt     time.Time
}

// SQLiteArchive implements agent.Archiver on top of a local SQLite file.
type SQLiteArchive struct {
	db     *sql.DB
	logger *logging.Logger
}

// Open creates (or reuses) the archive database at path and ensures the
// schema exists.
func Open(path string, logger *logging.Logger) (*SQLiteArchive, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("archive: create directory: %w", err)
	}

	dsn := path + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("archive: open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: ping database: %w", err)
	}

	a := &SQLiteArchive{db: db, logger: logger}
	if err := a.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func (a *SQLiteArchive) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS confirmed_issues (
		conversation_id TEXT PRIMARY KEY,
		originator_id   TEXT NOT NULL,
		title           TEXT NOT NULL,
		body            TEXT NOT NULL,
		category        TEXT NOT NULL,
		domain          TEXT NOT NULL,
		auto_resolve    INTEGER NOT NULL DEFAULT 0,
		confidence      TEXT NOT NULL DEFAULT 'low',
		turn_count      INTEGER NOT NULL,
		record_json     TEXT NOT NULL,
		archived_at     INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_confirmed_issues_archived ON confirmed_issues(archived_at);
	`
	if _, err := a.db.Exec(query); err != nil {
		return fmt.Errorf("archive: create schema: %w", err)
	}
	return nil
}

// Archive stores a confirmed conversation. Re-archiving the same
// conversation id overwrites the earlier row.
func (a *SQLiteArchive) Archive(ctx context.Context, st *agent.State) error {
	if st == nil || st.Draft == nil {
		return fmt.Errorf("archive: state has no draft")
	}

	recordJSON, err := json.Marshal(st.Record)
	if err != nil {
		return fmt.Errorf("archive: marshal record: %w", err)
	}

	autoResolve := 0
	confidence := agent.ConfidenceLow
	if st.Judgment != nil {
		if st.Judgment.CanAutoResolve {
			autoResolve = 1
		}
		if st.Judgment.Confidence != "" {
			confidence = st.Judgment.Confidence
		}
	}

	query := `
	INSERT INTO confirmed_issues
		(conversation_id, originator_id, title, body, category, domain,
		 auto_resolve, confidence, turn_count, record_json, archived_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(conversation_id) DO UPDATE SET
		title = excluded.title,
		body = excluded.body,
		category = excluded.category,
		domain = excluded.domain,
		auto_resolve = excluded.auto_resolve,
		confidence = excluded.confidence,
		turn_count = excluded.turn_count,
		record_json = excluded.record_json,
		archived_at = excluded.archived_at`

	_, err = a.db.ExecContext(ctx, query,
		st.ConversationID, st.OriginatorID,
		st.Draft.Title, st.Draft.Body,
		string(st.Record.Category), string(st.Record.Domain),
		autoResolve, string(confidence),
		len(st.History), string(recordJSON), time.Now().UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("archive: insert confirmed issue: %w", err)
	}

	a.logger.Info("archived confirmed conversation",
		"conversation_id", st.ConversationID,
		"category", st.Record.Category,
		"turn_count", len(st.History))
	return nil
}

// Get returns the archived record for a conversation id, or sql.ErrNoRows
// wrapped when the conversation was never archived.
func (a *SQLiteArchive) Get(ctx context.Context, conversationID string) (*Record, error) {
	query := `
	SELECT conversation_id, originator_id, title, body, category, domain,
	       auto_resolve, confidence, turn_count, archived_at
	FROM confirmed_issues WHERE conversation_id = ?`

	row := a.db.QueryRowContext(ctx, query, conversationID)

	var rec Record
	var autoResolve int
	var category, domain, confidence string
	var archivedAt int64
	err := row.Scan(
		&rec.ConversationID, &rec.OriginatorID, &rec.Title, &rec.Body,
		&category, &domain, &autoResolve, &confidence, &rec.TurnCount, &archivedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("archive: scan confirmed issue: %w", err)
	}

	rec.Category = agent.Category(category)
	rec.Domain = agent.Domain(domain)
	rec.AutoResolve = autoResolve != 0
	rec.Confidence = agent.Confidence(confidence)
	rec.ArchivedAt = time.Unix(archivedAt, 0).UTC()
	return &rec, nil
}

// Recent returns the most recently archived records, newest first.
func (a *SQLiteArchive) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
	SELECT conversation_id, originator_id, title, body, category, domain,
	       auto_resolve, confidence, turn_count, archived_at
	FROM confirmed_issues ORDER BY archived_at DESC LIMIT ?`

	rows, err := a.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("archive: query recent issues: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var autoResolve int
		var category, domain, confidence string
		var archivedAt int64
		if err := rows.Scan(
			&rec.ConversationID, &rec.OriginatorID, &rec.Title, &rec.Body,
			&category, &domain, &autoResolve, &confidence, &rec.TurnCount, &archivedAt,
		); err != nil {
			return nil, fmt.Errorf("archive: scan confirmed issue: %w", err)
		}
		rec.Category = agent.Category(category)
		rec.Domain = agent.Domain(domain)
		rec.AutoResolve = autoResolve != 0
		rec.Confidence = agent.Confidence(confidence)
		rec.ArchivedAt = time.Unix(archivedAt, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}
