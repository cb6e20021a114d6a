package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"site-planner/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteState keeps one JSON document per project plus a small meta table.
type SQLiteState struct {
	db *sql.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLiteState, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
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
	if err := migrateSQLiteState(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteState{db: db}, nil
}

func migrateSQLiteState(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS state_meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			ord INTEGER NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteState) LoadAllProjects(ctx context.Context) (model.State, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, json FROM projects ORDER BY ord ASC`)
	if err != nil {
		return model.State{}, err
	}
	defer rows.Close()

	var st model.State
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return model.State{}, err
		}
		var p model.Project
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return model.State{}, fmt.Errorf("project %s: %w", id, err)
		}
		st.Projects = append(st.Projects, p)
	}
	if err := rows.Err(); err != nil {
		return model.State{}, err
	}
	if len(st.Projects) == 0 {
		return EmptyState(), nil
	}

	var active string
	err = s.db.QueryRowContext(ctx, `SELECT v FROM state_meta WHERE k = ?`, "active_project_id").Scan(&active)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return model.State{}, err
	}
	st.ActiveProjectID = strings.TrimSpace(active)
	return normalizeState(st, newRandomID), nil
}

// SaveAllProjects replaces every stored project in one transaction.
func (s *SQLiteState) SaveAllProjects(ctx context.Context, st model.State) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO state_meta(k, v) VALUES(?, ?)`, "version", fmt.Sprintf("%d", model.StateVersion)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO state_meta(k, v) VALUES(?, ?)`, "active_project_id", strings.TrimSpace(st.ActiveProjectID)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM projects`); err != nil {
		return err
	}
	nowMs := time.Now().UTC().UnixMilli()
	for i, p := range st.Projects {
		raw, err := json.Marshal(p)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO projects(id, name, ord, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?)`,
			p.ID, p.Name, i, string(raw), nowMs); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteState) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
