package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/deppcyan/agent-service/graph"
)

// MySQLStore is a MySQL/MariaDB-backed WorkflowStore, for services that
// want workflow definitions and run records to survive process restarts
// and be shared across instances.
//
// dsn must include parseTime=true so DATETIME columns scan into time.Time,
// e.g. "user:pass@tcp(127.0.0.1:3306)/workflows?parseTime=true".
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens a MySQL connection pool and ensures its schema exists.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("persistence: open mysql: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(time.Hour)

	s := &MySQLStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS workflows (
			name VARCHAR(255) PRIMARY KEY,
			definition MEDIUMTEXT NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			task_id VARCHAR(255) PRIMARY KEY,
			status VARCHAR(32) NOT NULL,
			results MEDIUMTEXT NOT NULL,
			error TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("persistence: migrate: %w", err)
		}
	}
	return nil
}

func (s *MySQLStore) SaveWorkflow(ctx context.Context, name string, def graph.WorkflowDef) error {
	body, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("persistence: marshal workflow: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO workflows (name, definition, updated_at) VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE definition = VALUES(definition), updated_at = VALUES(updated_at)`,
		name, string(body), time.Now())
	return err
}

func (s *MySQLStore) LoadWorkflow(ctx context.Context, name string) (graph.WorkflowDef, error) {
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

func (s *MySQLStore) ListWorkflows(ctx context.Context) ([]string, error) {
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

func (s *MySQLStore) DeleteWorkflow(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM workflows WHERE name = ?`, name)
	return err
}

func (s *MySQLStore) SaveRun(ctx context.Context, record RunRecord) error {
	results, err := json.Marshal(record.Results)
	if err != nil {
		return fmt.Errorf("persistence: marshal run results: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (task_id, status, results, error, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE status = VALUES(status), results = VALUES(results),
		 error = VALUES(error), updated_at = VALUES(updated_at)`,
		record.TaskID, string(record.Status), string(results), record.Error, record.CreatedAt, record.UpdatedAt)
	return err
}

func (s *MySQLStore) LoadRun(ctx context.Context, taskID string) (RunRecord, error) {
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

func (s *MySQLStore) Close() error { return s.db.Close() }
