package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/deppcyan/agent-service/graph"
)

// SQLiteStore is a SQLite-backed WorkflowStore, using the pure-Go
// modernc.org/sqlite driver (no cgo). Good for local development, single-
// process services, and tests that want real SQL semantics without a
// database server.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) a SQLite database at path and
// ensures its schema exists. path may be ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("persistence: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("persistence: enable WAL: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS workflows (
	name TEXT PRIMARY KEY,
	definition TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS runs (
	task_id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	results TEXT NOT NULL,
	error TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);`)
	if err != nil {
		return fmt.Errorf("persistence: migrate: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SaveWorkflow(ctx context.Context, name string, def graph.WorkflowDef) error {
	body, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("persistence: marshal workflow: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO workflows (name, definition, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET definition = excluded.definition, updated_at = excluded.updated_at`,
		name, string(body), time.Now())
	return err
}

func (s *SQLiteStore) LoadWorkflow(ctx context.Context, name string) (graph.WorkflowDef, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT definition FROM workflows WHERE name = ?`, name).Scan(&body)
	if err == sql.ErrNoRows {
		return graph.WorkflowDef{}, ErrNotFound
	}
	if err != nil {
		return graph.WorkflowDef{}, err
	}
	var def graph.WorkflowDef
	if err := json.Unmarshal([]byte(body), &def); err != nil {
		return graph.WorkflowDef{}, fmt.Errorf("persistence: unmarshal workflow: %w", err)
	}
	return def, nil
}

func (s *SQLiteStore) ListWorkflows(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM workflows ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteStore) DeleteWorkflow(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM workflows WHERE name = ?`, name)
	return err
}

func (s *SQLiteStore) SaveRun(ctx context.Context, record RunRecord) error {
	results, err := json.Marshal(record.Results)
	if err != nil {
		return fmt.Errorf("persistence: marshal run results: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (task_id, status, results, error, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(task_id) DO UPDATE SET status = excluded.status, results = excluded.results,
		 error = excluded.error, updated_at = excluded.updated_at`,
		record.TaskID, string(record.Status), string(results), record.Error, record.CreatedAt, record.UpdatedAt)
	return err
}

func (s *SQLiteStore) LoadRun(ctx context.Context, taskID string) (RunRecord, error) {
	var rec RunRecord
	var status, results string
	err := s.db.QueryRowContext(ctx,
		`SELECT task_id, status, results, error, created_at, updated_at FROM runs WHERE task_id = ?`, taskID,
	).Scan(&rec.TaskID, &status, &results, &rec.Error, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return RunRecord{}, ErrNotFound
	}
	if err != nil {
		return RunRecord{}, err
	}
	rec.Status = graph.Status(status)
	if err := json.Unmarshal([]byte(results), &rec.Results); err != nil {
		return RunRecord{}, fmt.Errorf("persistence: unmarshal run results: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
