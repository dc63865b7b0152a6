// Package ledger records growth runs and their periodic samples in SQLite.
// It is a history of runs, not a store of tilings: nothing read back from
// it is ever turned into a graph again.
package ledger

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection for the run ledger.
type DB struct {
	conn *sqlx.DB
}

// Run describes one growth run.
type Run struct {
	ID          string    `json:"id"`
	Seed        int64     `json:"seed"`
	InitialSize float64   `json:"initial_size"`
	Palette     string    `json:"palette"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at,omitzero"`
	Steps       uint64    `json:"steps"`
	Halted      bool      `json:"halted"`
}

// Finished reports whether FinishRun has been recorded for the run.
func (r Run) Finished() bool { return !r.FinishedAt.IsZero() }

// Sample is a snapshot of the tiling counters at one step.
type Sample struct {
	RunID     string `db:"run_id" json:"run_id"`
	Step      uint64 `db:"step" json:"step"`
	Vertices  int    `db:"vertices" json:"vertices"`
	Triangles int    `db:"triangles" json:"triangles"`
	Open      int    `db:"open" json:"open"`
}

type runRow struct {
	ID          string        `db:"id"`
	Seed        int64         `db:"seed"`
	InitialSize float64       `db:"initial_size"`
	Palette     string        `db:"palette"`
	StartedAt   int64         `db:"started_at"`
	FinishedAt  sql.NullInt64 `db:"finished_at"`
	Steps       int64         `db:"steps"`
	Halted      int           `db:"halted"`
}

func (r runRow) run() Run {
	run := Run{
		ID:          r.ID,
		Seed:        r.Seed,
		InitialSize: r.InitialSize,
		Palette:     r.Palette,
		StartedAt:   time.UnixMilli(r.StartedAt).UTC(),
		Steps:       uint64(r.Steps),
		Halted:      r.Halted != 0,
	}
	if r.FinishedAt.Valid {
		run.FinishedAt = time.UnixMilli(r.FinishedAt.Int64).UTC()
	}
	return run
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer; also keeps ":memory:" databases on a single connection.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		initial_size REAL NOT NULL,
		palette TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		steps INTEGER NOT NULL DEFAULT 0,
		halted INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS samples (
		run_id TEXT NOT NULL REFERENCES runs(id),
		step INTEGER NOT NULL,
		vertices INTEGER NOT NULL,
		triangles INTEGER NOT NULL,
		open INTEGER NOT NULL,
		PRIMARY KEY (run_id, step)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// StartRun inserts a new run and returns it with a fresh ID.
func (db *DB) StartRun(seed int64, initialSize float64, palette string) (Run, error) {
	run := Run{
		ID:          uuid.NewString(),
		Seed:        seed,
		InitialSize: initialSize,
		Palette:     palette,
		StartedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
	_, err := db.conn.Exec(
		"INSERT INTO runs (id, seed, initial_size, palette, started_at) VALUES (?, ?, ?, ?, ?)",
		run.ID, run.Seed, run.InitialSize, run.Palette, run.StartedAt.UnixMilli(),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}

	slog.Info("run started", "run", run.ID, "seed", seed, "palette", palette)
	return run, nil
}

// RecordSample stores the counters of a run at one step. Recording the same
// step twice keeps the latest values.
func (db *DB) RecordSample(s Sample) error {
	_, err := db.conn.NamedExec(`INSERT OR REPLACE INTO samples
		(run_id, step, vertices, triangles, open)
		VALUES (:run_id, :step, :vertices, :triangles, :open)`, s)
	if err != nil {
		return fmt.Errorf("insert sample %s/%d: %w", s.RunID, s.Step, err)
	}
	return nil
}

// FinishRun stamps the final step count and halt state of a run.
func (db *DB) FinishRun(id string, steps uint64, halted bool) error {
	h := 0
	if halted {
		h = 1
	}
	res, err := db.conn.Exec(
		"UPDATE runs SET finished_at = ?, steps = ?, halted = ? WHERE id = ?",
		time.Now().UnixMilli(), int64(steps), h, id,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: no such run", id)
	}

	slog.Info("run finished", "run", id, "steps", steps, "halted", halted)
	return nil
}

// Runs returns the most recent runs, newest first.
func (db *DB) Runs(limit int) ([]Run, error) {
	var rows []runRow
	err := db.conn.Select(&rows,
		`SELECT id, seed, initial_size, palette, started_at, finished_at, steps, halted
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}

	runs := make([]Run, len(rows))
	for i, r := range rows {
		runs[i] = r.run()
	}
	return runs, nil
}

// Samples returns every sample of a run in step order.
func (db *DB) Samples(runID string) ([]Sample, error) {
	var samples []Sample
	err := db.conn.Select(&samples,
		"SELECT run_id, step, vertices, triangles, open FROM samples WHERE run_id = ? ORDER BY step",
		runID,
	)
	return samples, err
}
