package journal

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"site-planner/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteSink mirrors events into an `events` table.
type SQLiteSink struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the audit database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteSink{db: db}, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			position TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			date_unixms INTEGER NOT NULL,
			recorded_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_project ON events(project_id, recorded_at_unixms);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteSink) Write(ctx context.Context, ev model.Event) error {
	if strings.TrimSpace(ev.ID) == "" {
		return formatErrEventContract("missing event id")
	}
	if strings.TrimSpace(ev.ProjectID) == "" {
		return formatErrEventContract("missing project id")
	}
	rec := ev.Date
	if ev.RecordedAt != nil {
		rec = *ev.RecordedAt
	}
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO events(
			event_id, project_id, type, title, description, position, entity_id, date_unixms, recorded_at_unixms
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.ProjectID, string(ev.Type), ev.Title, ev.Description, ev.Position, ev.EntityID,
		ev.Date.UTC().UnixMilli(), rec.UTC().UnixMilli(),
	)
	return err
}

// Read returns events oldest first. Empty projectID means every project; limit == 0 means all.
func (s *SQLiteSink) Read(ctx context.Context, projectID string, limit int) ([]model.Event, error) {
	q := `SELECT event_id, project_id, type, title, description, position, entity_id, date_unixms, recorded_at_unixms
		FROM events`
	var args []any
	if strings.TrimSpace(projectID) != "" {
		q += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	q += ` ORDER BY recorded_at_unixms ASC, event_id ASC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Event{}
	for rows.Next() {
		var (
			ev            model.Event
			typ           string
			dateMs, recMs int64
		)
		if err := rows.Scan(&ev.ID, &ev.ProjectID, &typ, &ev.Title, &ev.Description, &ev.Position, &ev.EntityID, &dateMs, &recMs); err != nil {
			return nil, err
		}
		ev.Type = model.EventType(typ)
		ev.Date = time.UnixMilli(dateMs).UTC()
		rec := time.UnixMilli(recMs).UTC()
		ev.RecordedAt = &rec
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *SQLiteSink) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
