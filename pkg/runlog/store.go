// Package runlog records imputation runs in SQLite: one row per run, one per
// pass, the per-column errors of every pass and the resolver diagnostics.
// A Store is an impute.Reporter.
package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wdm0006/rangerimpute/pkg/impute"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

type Store struct {
	db *sql.DB
	// Source labels runs, typically the input path.
	Source string
	now    func() time.Time
}

// Run is one recorded run.
type Run struct {
	ID         string
	Source     string
	StartedAt  time.Time
	FinishedAt *time.Time
	State      string
	Iterations int
	Best       int
	BestError  *float64
	Reason     string
	Elapsed    time.Duration
}

// Pass is one recorded pass with its column errors.
type Pass struct {
	RunID     string
	Iteration int
	Aggregate *float64
	Improved  bool
	Elapsed   time.Duration
	Columns   []impute.ColumnError
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*Store, error) {
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("runlog: open database: %w", err)
	}
	// one writer; concurrent runs from impute.Multiple queue here
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("runlog: pragma %q: %w", p, err)
		}
	}
	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("runlog: migration: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			source      TEXT NOT NULL DEFAULT '',
			started_at  TEXT NOT NULL,
			finished_at TEXT,
			state       TEXT NOT NULL,
			iterations  INTEGER NOT NULL DEFAULT 0,
			best        INTEGER NOT NULL DEFAULT 0,
			best_error  REAL,
			reason      TEXT NOT NULL DEFAULT '',
			elapsed_ms  INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS passes (
			run_id     TEXT    NOT NULL,
			iteration  INTEGER NOT NULL,
			aggregate  REAL,
			improved   INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			PRIMARY KEY (run_id, iteration),
			FOREIGN KEY (run_id) REFERENCES runs(id)
		);

		CREATE TABLE IF NOT EXISTS column_errors (
			run_id     TEXT    NOT NULL,
			iteration  INTEGER NOT NULL,
			col        TEXT    NOT NULL,
			oob        REAL,
			normalized REAL,
			PRIMARY KEY (run_id, iteration, col),
			FOREIGN KEY (run_id) REFERENCES runs(id)
		);

		CREATE TABLE IF NOT EXISTS diagnostics (
			run_id TEXT NOT NULL,
			col    TEXT NOT NULL,
			kind   TEXT NOT NULL,
			reason TEXT NOT NULL,
			FOREIGN KEY (run_id) REFERENCES runs(id)
		);

		CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

const stamp = time.RFC3339Nano

// ensureRun inserts the run row the first time a run is seen.
func (s *Store) ensureRun(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO runs (id, source, started_at, state) VALUES (?, ?, ?, ?)`,
		id, s.Source, s.now().UTC().Format(stamp), impute.IterationRunning.String(),
	)
	return err
}

// Iteration records one pass.
func (s *Store) Iteration(ctx context.Context, rep impute.IterationReport) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.ensureRun(ctx, tx, rep.RunID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO passes (run_id, iteration, aggregate, improved, elapsed_ms) VALUES (?, ?, ?, ?, ?)`,
			rep.RunID, rep.Iteration, finite(rep.Aggregate), rep.Improved, rep.Elapsed.Milliseconds(),
		); err != nil {
			return err
		}
		for _, c := range rep.Columns {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO column_errors (run_id, iteration, col, oob, normalized) VALUES (?, ?, ?, ?, ?)`,
				rep.RunID, rep.Iteration, c.Column, finite(c.OOB), finite(c.Normalized),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// Finish records the outcome and diagnostics of a run.
func (s *Store) Finish(ctx context.Context, res *impute.Result) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.ensureRun(ctx, tx, res.RunID); err != nil {
			return err
		}
		reason := ""
		if res.Reason != nil {
			reason = res.Reason.Error()
		}
		var best any
		if res.Best > 0 {
			best = finite(res.BestError)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE runs SET finished_at = ?, state = ?, iterations = ?, best = ?, best_error = ?, reason = ?, elapsed_ms = ? WHERE id = ?`,
			s.now().UTC().Format(stamp), res.State.String(), len(res.Iterations), res.Best, best, reason, res.Elapsed.Milliseconds(), res.RunID,
		); err != nil {
			return err
		}
		for _, d := range res.Diagnostics {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO diagnostics (run_id, col, kind, reason) VALUES (?, ?, ?, ?)`,
				res.RunID, d.Column, d.Kind.Error(), d.Reason,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("runlog: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("runlog: %w", err)
	}
	return tx.Commit()
}

// finite maps NaN and infinities to NULL.
func finite(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

// Runs returns the most recent runs first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, started_at, finished_at, state, iterations, best, best_error, reason, elapsed_ms
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var (
			r             Run
			started       string
			finished      sql.NullString
			bestErr       sql.NullFloat64
			elapsedMillis int64
		)
		if err := rows.Scan(&r.ID, &r.Source, &started, &finished, &r.State, &r.Iterations, &r.Best, &bestErr, &r.Reason, &elapsedMillis); err != nil {
			return nil, err
		}
		if r.StartedAt, err = time.Parse(stamp, started); err != nil {
			return nil, err
		}
		if finished.Valid {
			t, err := time.Parse(stamp, finished.String)
			if err != nil {
				return nil, err
			}
			r.FinishedAt = &t
		}
		if bestErr.Valid {
			r.BestError = &bestErr.Float64
		}
		r.Elapsed = time.Duration(elapsedMillis) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// Passes returns the recorded passes of a run in order.
func (s *Store) Passes(ctx context.Context, runID string) ([]Pass, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.iteration, p.aggregate, p.improved, p.elapsed_ms, c.col, c.oob, c.normalized
		 FROM passes p LEFT JOIN column_errors c ON c.run_id = p.run_id AND c.iteration = p.iteration
		 WHERE p.run_id = ? ORDER BY p.iteration, c.rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Pass
	for rows.Next() {
		var (
			it            int
			agg           sql.NullFloat64
			improved      bool
			elapsedMillis int64
			col           sql.NullString
			oob, norm     sql.NullFloat64
		)
		if err := rows.Scan(&it, &agg, &improved, &elapsedMillis, &col, &oob, &norm); err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].Iteration != it {
			p := Pass{RunID: runID, Iteration: it, Improved: improved, Elapsed: time.Duration(elapsedMillis) * time.Millisecond}
			if agg.Valid {
				v := agg.Float64
				p.Aggregate = &v
			}
			out = append(out, p)
		}
		if col.Valid {
			last := &out[len(out)-1]
			last.Columns = append(last.Columns, impute.ColumnError{Column: col.String, OOB: nullNaN(oob), Normalized: nullNaN(norm)})
		}
	}
	return out, rows.Err()
}

// Diagnostic is a stored resolver diagnostic; Kind is the sentinel's text.
type Diagnostic struct {
	Column string
	Kind   string
	Reason string
}

// Diagnostics returns the resolver diagnostics stored for a run.
func (s *Store) Diagnostics(ctx context.Context, runID string) ([]Diagnostic, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT col, kind, reason FROM diagnostics WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Diagnostic
	for rows.Next() {
		var d Diagnostic
		if err := rows.Scan(&d.Column, &d.Kind, &d.Reason); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func nullNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
