// Package transcript records compile runs in a SQLite database so
// authors can inspect how a block's statements compiled over time.
// The store is a boundary adapter: the compiler core never touches
// it, the CLI opts in.
package transcript

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/veildoc/veil/core/errors"
	"github.com/veildoc/veil/core/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS compile_runs (
	id           TEXT PRIMARY KEY,
	block_id     TEXT NOT NULL,
	compiled_at  TEXT NOT NULL,
	valid        INTEGER NOT NULL,
	instructions INTEGER NOT NULL,
	errors       INTEGER NOT NULL,
	warnings     INTEGER NOT NULL,
	duration_ms  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_compile_runs_block
	ON compile_runs (block_id, compiled_at);
`

// Entry is one recorded compile run.
type Entry struct {
	ID           string        `json:"id"`
	BlockID      string        `json:"block_id"`
	CompiledAt   time.Time     `json:"compiled_at"`
	Valid        bool          `json:"valid"`
	Instructions int           `json:"instructions"`
	Errors       int           `json:"errors"`
	Warnings     int           `json:"warnings"`
	Duration     time.Duration `json:"duration"`
}

// Store is a transcript database handle.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a transcript store at path.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "transcript schema")
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores one compile run. A zero ID gets a fresh UUID; a zero
// timestamp gets the current time.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CompiledAt.IsZero() {
		e.CompiledAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO compile_runs
			(id, block_id, compiled_at, valid, instructions, errors, warnings, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.BlockID, e.CompiledAt.Format(time.RFC3339Nano),
		boolInt(e.Valid), e.Instructions, e.Errors, e.Warnings,
		e.Duration.Milliseconds(),
	)
	return errors.Wrap(err, "record compile run")
}

// List returns the most recent runs, newest first. An empty blockID
// lists runs for all blocks.
func (s *Store) List(ctx context.Context, blockID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, block_id, compiled_at, valid, instructions, errors, warnings, duration_ms
		FROM compile_runs`
	args := []any{}
	if blockID != "" {
		query += ` WHERE block_id = ?`
		args = append(args, blockID)
	}
	query += ` ORDER BY compiled_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list compile runs")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var at string
		var valid, durationMS int64
		if err := rows.Scan(&e.ID, &e.BlockID, &at, &valid,
			&e.Instructions, &e.Errors, &e.Warnings, &durationMS); err != nil {
			return nil, errors.Wrap(err, "scan compile run")
		}
		e.Valid = valid != 0
		e.Duration = time.Duration(durationMS) * time.Millisecond
		if t, perr := time.Parse(time.RFC3339Nano, at); perr == nil {
			e.CompiledAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Purge deletes runs recorded before the cutoff and returns how many
// were removed.
func (s *Store) Purge(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM compile_runs WHERE compiled_at < ?`,
		before.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, errors.Wrap(err, "purge compile runs")
	}
	return res.RowsAffected()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
