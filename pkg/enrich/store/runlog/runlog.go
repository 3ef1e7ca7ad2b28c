// Package runlog keeps a SQLite audit trail of pipeline runs. It stores
// counters only, never completion responses.
package runlog

import (
	"context"
	"crypto/rand"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Run is one recorded pipeline execution.
type Run struct {
	ID               string
	StartedAt        time.Time
	FinishedAt       time.Time
	InputPath        string
	OutputPath       string
	PostsIn          int
	PostsOut         int
	Skipped          int
	ExtractFallbacks int
	UnifyFallback    bool
}

// Store persists runs in a SQLite database.
type Store struct {
	db      *sql.DB
	entropy *ulid.MonotonicEntropy
}

// Open opens (creating if needed) the run-log database with WAL mode enabled.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:      db,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	input_path TEXT,
	output_path TEXT,
	posts_in INTEGER NOT NULL,
	posts_out INTEGER NOT NULL,
	skipped INTEGER NOT NULL,
	extract_fallbacks INTEGER NOT NULL,
	unify_fallback INTEGER NOT NULL
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Record inserts a run, assigning a ULID if the caller left the ID empty.
func (s *Store) Record(ctx context.Context, run Run) error {
	if run.ID == "" {
		run.ID = ulid.MustNew(ulid.Now(), s.entropy).String()
	}

	unifyFallback := 0
	if run.UnifyFallback {
		unifyFallback = 1
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (id, started_at, finished_at, input_path, output_path,
	posts_in, posts_out, skipped, extract_fallbacks, unify_fallback)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.InputPath,
		run.OutputPath,
		run.PostsIn,
		run.PostsOut,
		run.Skipped,
		run.ExtractFallbacks,
		unifyFallback,
	)
	return err
}

// Recent returns the most recent runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, started_at, finished_at, input_path, output_path,
	posts_in, posts_out, skipped, extract_fallbacks, unify_fallback
FROM runs
ORDER BY started_at DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, finished string
		var unifyFallback int
		if err := rows.Scan(&run.ID, &started, &finished, &run.InputPath, &run.OutputPath,
			&run.PostsIn, &run.PostsOut, &run.Skipped, &run.ExtractFallbacks, &unifyFallback); err != nil {
			return nil, err
		}
		run.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		run.UnifyFallback = unifyFallback != 0
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
