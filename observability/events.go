// Package observability records pipeline-level events for later inspection.
//
// The event log is strictly best-effort: a failing store never blocks or
// fails document processing.
package observability

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ExtractionEvent is one processed file.
type ExtractionEvent struct {
	Filename   string
	FileType   string
	Method     string
	Success    bool
	ErrorCount int
	DurationMs int64
}

const eventsSchema = `
CREATE TABLE IF NOT EXISTS extraction_events (
	event_id    TEXT PRIMARY KEY,
	filename    TEXT NOT NULL,
	file_type   TEXT NOT NULL,
	method      TEXT NOT NULL,
	success     INTEGER NOT NULL,
	error_count INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_extraction_events_created
	ON extraction_events(created_at);
`

// EventLog writes extraction events to a SQLite database.
type EventLog struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates (or opens) the event database at path and ensures the schema.
func Open(path string, logger *slog.Logger) (*EventLog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("observability: open %s: %w", path, err)
	}
	if _, err := db.Exec(eventsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("observability: schema: %w", err)
	}
	return &EventLog{db: db, logger: logger}, nil
}

// Record writes one event. Errors are logged and swallowed so that a broken
// observability store never surfaces into the processing path.
func (l *EventLog) Record(ctx context.Context, ev ExtractionEvent) {
	if l == nil {
		return
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO extraction_events (
			event_id, filename, file_type, method,
			success, error_count, duration_ms, created_at
		) VALUES (?,?,?,?,?,?,?,?)`,
		"evt_"+uuid.NewString(), ev.Filename, ev.FileType, ev.Method,
		ev.Success, ev.ErrorCount, ev.DurationMs, time.Now().Unix())
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to record extraction event",
			"filename", ev.Filename,
			"error", err)
	}
}

// Recent returns the most recent events, newest first.
func (l *EventLog) Recent(ctx context.Context, limit int) ([]ExtractionEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT filename, file_type, method, success, error_count, duration_ms
		FROM extraction_events
		ORDER BY created_at DESC, event_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("observability: query: %w", err)
	}
	defer rows.Close()

	var events []ExtractionEvent
	for rows.Next() {
		var ev ExtractionEvent
		if err := rows.Scan(&ev.Filename, &ev.FileType, &ev.Method,
			&ev.Success, &ev.ErrorCount, &ev.DurationMs); err != nil {
			return nil, fmt.Errorf("observability: scan: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Close releases the underlying database handle.
func (l *EventLog) Close() error {
	if l == nil {
		return nil
	}
	return l.db.Close()
}
