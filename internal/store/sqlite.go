package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rdelaney/graphmark/internal/model"

	_ "modernc.org/sqlite"
)

const createRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    database_   TEXT NOT NULL,
    dataset     TEXT NOT NULL,
    workload    TEXT NOT NULL,
    mode        TEXT NOT NULL,
    seed        INTEGER NOT NULL,
    status      TEXT NOT NULL,
    error       TEXT,
    duration_s  REAL,
    created_at  DATETIME NOT NULL,
    started_at  DATETIME,
    finished_at DATETIME
)`

const createTaskResultsTable = `
CREATE TABLE IF NOT EXISTS task_results (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id           TEXT NOT NULL,
    task_index       INTEGER NOT NULL,
    task_name        TEXT NOT NULL,
    status           TEXT NOT NULL,
    duration_seconds REAL NOT NULL,
    original_ops     INTEGER NOT NULL,
    valid_ops        INTEGER NOT NULL,
    filtered_ops     INTEGER NOT NULL,
    created_at       DATETIME NOT NULL
)`

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id     TEXT NOT NULL,
    seq        INTEGER NOT NULL,
    kind       TEXT NOT NULL,
    task_name  TEXT,
    message    TEXT,
    created_at DATETIME NOT NULL
)`

// Compile-time interface satisfaction check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the SQLite database at dbPath and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	for _, stmt := range []string{createRunsTable, createTaskResultsTable, createEventsTable} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateRun inserts a new run record.
func (s *SQLiteStore) CreateRun(ctx context.Context, r *model.Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (
			id, database_, dataset, workload, mode, seed,
			status, error, duration_s, created_at, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Database, r.Dataset, r.Workload, r.Mode, r.Seed,
		r.Status, r.Error, r.DurationS, r.CreatedAt, r.StartedAt, r.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	r := &model.Run{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, database_, dataset, workload, mode, seed,
			status, error, duration_s, created_at, started_at, finished_at
		FROM runs WHERE id = ?`, id,
	).Scan(
		&r.ID, &r.Database, &r.Dataset, &r.Workload, &r.Mode, &r.Seed,
		&r.Status, &r.Error, &r.DurationS, &r.CreatedAt, &r.StartedAt, &r.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns a paginated list of runs ordered by created_at DESC,
// along with the total count of all runs.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit, offset int) ([]*model.Run, int, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count runs: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, database_, dataset, workload, mode, seed,
			status, error, duration_s, created_at, started_at, finished_at
		FROM runs ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		r := &model.Run{}
		if err := rows.Scan(
			&r.ID, &r.Database, &r.Dataset, &r.Workload, &r.Mode, &r.Seed,
			&r.Status, &r.Error, &r.DurationS, &r.CreatedAt, &r.StartedAt, &r.FinishedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, total, nil
}

// UpdateRunStatus transitions a run to a new status, enforcing the valid
// transition table.
func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, id, status string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM runs WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get run status: %w", err)
	}

	if !model.ValidTransition(current, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
	}

	now := time.Now().UTC()
	if status == model.StatusRunning {
		_, err = tx.ExecContext(ctx,
			`UPDATE runs SET status = ?, started_at = ? WHERE id = ?`, status, now, id)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE runs SET status = ?, finished_at = ? WHERE id = ?`, status, now, id)
	}
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}

	return tx.Commit()
}

// UpdateRun updates the mutable outcome fields of a run.
func (s *SQLiteStore) UpdateRun(ctx context.Context, r *model.Run) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, duration_s = ?,
			started_at = COALESCE(?, started_at),
			finished_at = COALESCE(?, finished_at)
		WHERE id = ?`,
		r.Status, r.Error, r.DurationS, r.StartedAt, r.FinishedAt, r.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRunStats aggregates counts and average duration across all runs.
func (s *SQLiteStore) GetRunStats(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{
		CountByStatus:   make(map[string]int),
		CountByDatabase: make(map[string]int),
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		stats.CountByStatus[status] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}

	dbRows, err := s.db.QueryContext(ctx, `SELECT database_, COUNT(*) FROM runs GROUP BY database_`)
	if err != nil {
		return nil, fmt.Errorf("count by database: %w", err)
	}
	defer dbRows.Close()
	for dbRows.Next() {
		var name string
		var count int
		if err := dbRows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("scan database count: %w", err)
		}
		stats.CountByDatabase[name] = count
	}
	if err := dbRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate database counts: %w", err)
	}

	var avg sql.NullFloat64
	if err := s.db.QueryRowContext(ctx,
		`SELECT AVG(duration_s) FROM runs WHERE duration_s IS NOT NULL`,
	).Scan(&avg); err != nil {
		return nil, fmt.Errorf("avg duration: %w", err)
	}
	if avg.Valid {
		stats.AvgDurationS = avg.Float64
	}

	return stats, nil
}

// InsertTaskResult appends one task outcome for a run.
func (s *SQLiteStore) InsertTaskResult(ctx context.Context, tr *model.TaskResult) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO task_results (
			run_id, task_index, task_name, status, duration_seconds,
			original_ops, valid_ops, filtered_ops, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.RunID, tr.TaskIndex, tr.TaskName, tr.Status, tr.DurationSeconds,
		tr.OriginalOps, tr.ValidOps, tr.FilteredOps, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert task result: %w", err)
	}
	return nil
}

// GetTaskResults returns all task results for a run in task order.
func (s *SQLiteStore) GetTaskResults(ctx context.Context, runID string) ([]model.TaskResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, task_index, task_name, status, duration_seconds,
			original_ops, valid_ops, filtered_ops, created_at
		FROM task_results WHERE run_id = ? ORDER BY task_index, id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("get task results: %w", err)
	}
	defer rows.Close()

	var results []model.TaskResult
	for rows.Next() {
		var tr model.TaskResult
		if err := rows.Scan(
			&tr.ID, &tr.RunID, &tr.TaskIndex, &tr.TaskName, &tr.Status, &tr.DurationSeconds,
			&tr.OriginalOps, &tr.ValidOps, &tr.FilteredOps, &tr.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan task result: %w", err)
		}
		results = append(results, tr)
	}
	return results, rows.Err()
}

// InsertEvent appends one progress event to the run's event log.
func (s *SQLiteStore) InsertEvent(ctx context.Context, runID string, seq int, kind, taskName, message string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (run_id, seq, kind, task_name, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, seq, kind, taskName, message, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetEvents returns all persisted events for a run in arrival order.
func (s *SQLiteStore) GetEvents(ctx context.Context, runID string) ([]model.EventRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, seq, kind, task_name, message, created_at
		FROM events WHERE run_id = ? ORDER BY seq, id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("get events: %w", err)
	}
	defer rows.Close()

	var events []model.EventRecord
	for rows.Next() {
		var e model.EventRecord
		if err := rows.Scan(&e.ID, &e.RunID, &e.Seq, &e.Kind, &e.TaskName, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
