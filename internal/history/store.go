// Package history persists validation run verdicts to SQLite so past runs
// can be listed and inspected. It records verdicts only, never downloaded
// content.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/iconidentify/hlscheck/internal/domain"
)

// Store is a SQLite-backed run-history store.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			urls TEXT NOT NULL,
			ok INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS resources (
			run_id TEXT NOT NULL REFERENCES runs(id),
			sequence INTEGER NOT NULL,
			url TEXT NOT NULL,
			kind TEXT NOT NULL,
			depth INTEGER NOT NULL,
			verdict TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (run_id, sequence)
		);
		CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun persists a run and its verdict trail.
func (s *Store) SaveRun(ctx context.Context, run domain.Run) error {
	urls, err := json.Marshal(run.URLs)
	if err != nil {
		return fmt.Errorf("marshal urls: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, urls, ok, started_at, finished_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID.String(), string(urls), boolToInt(run.OK),
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, res := range run.Resources {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO resources (run_id, sequence, url, kind, depth, verdict, reason) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID.String(), res.Sequence, res.URL, string(res.Kind), res.Depth, string(res.Verdict), res.Reason,
		); err != nil {
			return fmt.Errorf("insert resource: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first, without their
// resource trails.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, urls, ok, started_at, finished_at FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]domain.Run, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run with its full resource trail.
func (s *Store) GetRun(ctx context.Context, id domain.RunID) (domain.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, urls, ok, started_at, finished_at FROM runs WHERE id = ?`,
		id.String(),
	)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Run{}, domain.ErrRunNotFound
	}
	if err != nil {
		return domain.Run{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT sequence, url, kind, depth, verdict, reason FROM resources WHERE run_id = ? ORDER BY sequence`,
		id.String(),
	)
	if err != nil {
		return domain.Run{}, fmt.Errorf("query resources: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var res domain.ResourceResult
		var kind, verdict string
		if err := rows.Scan(&res.Sequence, &res.URL, &kind, &res.Depth, &verdict, &res.Reason); err != nil {
			return domain.Run{}, fmt.Errorf("scan resource: %w", err)
		}
		res.Kind = domain.ResourceKind(kind)
		res.Verdict = domain.Verdict(verdict)
		run.Resources = append(run.Resources, res)
	}
	if err := rows.Err(); err != nil {
		return domain.Run{}, fmt.Errorf("iterate resources: %w", err)
	}

	return run, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (domain.Run, error) {
	var run domain.Run
	var id, urls, started, finished string
	var ok int

	if err := sc.Scan(&id, &urls, &ok, &started, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Run{}, err
		}
		return domain.Run{}, fmt.Errorf("scan run: %w", err)
	}

	run.ID = domain.RunID(id)
	run.OK = ok != 0

	if err := json.Unmarshal([]byte(urls), &run.URLs); err != nil {
		return domain.Run{}, fmt.Errorf("unmarshal urls: %w", err)
	}

	var err error
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return domain.Run{}, fmt.Errorf("parse started_at: %w", err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return domain.Run{}, fmt.Errorf("parse finished_at: %w", err)
	}

	return run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
