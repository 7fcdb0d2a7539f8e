// Package journal records provisioning run history in a local sqlite
// database. The journal is append-only: applying never reads it back to skip
// or reorder work, it only exists for later inspection.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// runIDFormat yields sortable, collision-resistant run identifiers.
const runIDFormat = "2006-01-02T15-04-05.000000000Z"

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Event statuses.
const (
	EventStarted   = "started"
	EventSucceeded = "succeeded"
	EventFailed    = "failed"
	EventIgnored   = "ignored"
	EventSkipped   = "skipped"
)

// Journal is a sqlite-backed, append-only record of runs. A nil Journal is
// valid and records nothing, which keeps history best-effort.
type Journal struct {
	db *sql.DB
}

// Run is one apply invocation.
type Run struct {
	ID         string
	Kind       string
	Name       string
	MountPoint string
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Event is one recorded step inside a run.
type Event struct {
	ID      int64
	RunID   string
	At      time.Time
	Overlay string
	Kind    string
	Detail  string
	Status  string
	Error   string
}

// Open opens or creates the journal database at path, creating parent
// directories as needed.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	j := &Journal{db: db}
	if err := j.initSchema(ctx); err != nil {
		_ = j.Close()
		return nil, err
	}
	return j, nil
}

// Close releases the underlying database handle.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

func (j *Journal) initSchema(ctx context.Context) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA foreign_keys=ON;`,
		`PRAGMA busy_timeout=5000;`,
		`
CREATE TABLE IF NOT EXISTS overlayctl_runs (
  run_id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  name TEXT NOT NULL,
  mount_point TEXT NOT NULL,
  status TEXT NOT NULL,
  error TEXT NOT NULL,
  started_at_ns INTEGER NOT NULL,
  finished_at_ns INTEGER NOT NULL
);`,
		`
CREATE TABLE IF NOT EXISTS overlayctl_events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  run_id TEXT NOT NULL,
  ts_ns INTEGER NOT NULL,
  overlay TEXT NOT NULL,
  kind TEXT NOT NULL,
  detail TEXT NOT NULL,
  status TEXT NOT NULL,
  error TEXT NOT NULL,
  FOREIGN KEY (run_id) REFERENCES overlayctl_runs(run_id) ON DELETE CASCADE
);`,
		`CREATE INDEX IF NOT EXISTS idx_overlayctl_events_run_id_id ON overlayctl_events(run_id, id);`,
	}
	for _, stmt := range stmts {
		if _, err := j.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// BeginRun records the start of an apply invocation and returns its run ID.
// On a nil Journal it returns an empty ID and no error.
func (j *Journal) BeginRun(ctx context.Context, kind, name, mountPoint string) (string, error) {
	if j == nil || j.db == nil {
		return "", nil
	}
	now := time.Now().UTC()
	id := now.Format(runIDFormat)
	_, err := j.db.ExecContext(ctx, `
INSERT INTO overlayctl_runs (run_id, kind, name, mount_point, status, error, started_at_ns, finished_at_ns)
VALUES (?, ?, ?, ?, ?, '', ?, 0)
`, id, kind, name, mountPoint, StatusRunning, now.UnixNano())
	if err != nil {
		return "", fmt.Errorf("record run start: %w", err)
	}
	return id, nil
}

// FinishRun records the outcome of a run started with BeginRun.
func (j *Journal) FinishRun(ctx context.Context, runID string, runErr error) error {
	if j == nil || j.db == nil || runID == "" {
		return nil
	}
	status, msg := StatusSucceeded, ""
	if runErr != nil {
		status, msg = StatusFailed, runErr.Error()
	}
	_, err := j.db.ExecContext(ctx, `
UPDATE overlayctl_runs SET status = ?, error = ?, finished_at_ns = ? WHERE run_id = ?
`, status, msg, time.Now().UTC().UnixNano(), runID)
	if err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	return nil
}

// RecordEvent appends one event to a run's trail.
func (j *Journal) RecordEvent(ctx context.Context, runID string, ev Event) error {
	if j == nil || j.db == nil || runID == "" {
		return nil
	}
	_, err := j.db.ExecContext(ctx, `
INSERT INTO overlayctl_events (run_id, ts_ns, overlay, kind, detail, status, error)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, runID, time.Now().UTC().UnixNano(), ev.Overlay, ev.Kind, ev.Detail, ev.Status, ev.Error)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// Runs returns the most recent runs, newest first.
func (j *Journal) Runs(ctx context.Context, limit int) ([]Run, error) {
	if j == nil || j.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, `
SELECT run_id, kind, name, mount_point, status, error, started_at_ns, finished_at_ns
FROM overlayctl_runs ORDER BY started_at_ns DESC, run_id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var run Run
		var startedNS, finishNS int64
		if err := rows.Scan(&run.ID, &run.Kind, &run.Name, &run.MountPoint, &run.Status, &run.Error, &startedNS, &finishNS); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = time.Unix(0, startedNS).UTC()
		if finishNS > 0 {
			run.FinishedAt = time.Unix(0, finishNS).UTC()
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Events returns a run's event trail in recorded order.
func (j *Journal) Events(ctx context.Context, runID string) ([]Event, error) {
	if j == nil || j.db == nil {
		return nil, nil
	}
	rows, err := j.db.QueryContext(ctx, `
SELECT id, run_id, ts_ns, overlay, kind, detail, status, error
FROM overlayctl_events WHERE run_id = ? ORDER BY id ASC
`, runID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Event
	for rows.Next() {
		var ev Event
		var tsNS int64
		if err := rows.Scan(&ev.ID, &ev.RunID, &tsNS, &ev.Overlay, &ev.Kind, &ev.Detail, &ev.Status, &ev.Error); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.At = time.Unix(0, tsNS).UTC()
		out = append(out, ev)
	}
	return out, rows.Err()
}
