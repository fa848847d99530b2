// Package sqlite persists check-run history so successive CI runs can be
// compared. Use ":memory:" as the path for tests.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bkyoung/covcheck/internal/domain"
)

// Store implements the check.Store interface using SQLite.
type Store struct {
	db *sql.DB
}

// Run records one check invocation.
type Run struct {
	RunID          string
	Timestamp      time.Time
	Repository     string
	BaseRef        string
	HeadRef        string
	FilesWithGaps  int
	UncoveredLines int
}

// NewStore creates a new SQLite store at the given path.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- Stores metadata about each check run
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		repository TEXT NOT NULL,
		base_ref TEXT NOT NULL,
		head_ref TEXT NOT NULL,
		files_with_gaps INTEGER NOT NULL DEFAULT 0,
		uncovered_lines INTEGER NOT NULL DEFAULT 0
	);

	-- Per-file gap entries for each run
	CREATE TABLE IF NOT EXISTS gaps (
		gap_id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		path TEXT NOT NULL,
		has_tests INTEGER NOT NULL,
		all_lines TEXT NOT NULL,
		statements TEXT NOT NULL,
		functions TEXT NOT NULL,
		ifs TEXT NOT NULL,
		elses TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_gaps_run ON gaps(run_id);
	CREATE INDEX IF NOT EXISTS idx_gaps_path ON gaps(path);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun stores a run and its gap entries in one transaction.
func (s *Store) SaveRun(ctx context.Context, run Run, entries []domain.GapEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, timestamp, repository, base_ref, head_ref, files_with_gaps, uncovered_lines)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.Timestamp.Unix(),
		run.Repository,
		run.BaseRef,
		run.HeadRef,
		run.FilesWithGaps,
		run.UncoveredLines,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, entry := range entries {
		if err := insertGap(ctx, tx, run.RunID, entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

func insertGap(ctx context.Context, tx *sql.Tx, runID string, entry domain.GapEntry) error {
	columns, err := encodeLineColumns(entry)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO gaps (run_id, path, has_tests, all_lines, statements, functions, ifs, elses)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		entry.Path,
		boolToInt(entry.HasTests),
		columns[0], columns[1], columns[2], columns[3], columns[4],
	)
	if err != nil {
		return fmt.Errorf("insert gap for %s: %w", entry.Path, err)
	}
	return nil
}

// GetRunGaps loads the gap entries recorded for a run.
func (s *Store) GetRunGaps(ctx context.Context, runID string) ([]domain.GapEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, has_tests, all_lines, statements, functions, ifs, elses
		FROM gaps WHERE run_id = ? ORDER BY gap_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query gaps: %w", err)
	}
	defer rows.Close()

	var entries []domain.GapEntry
	for rows.Next() {
		var entry domain.GapEntry
		var hasTests int
		var all, statements, functions, ifs, elses string
		if err := rows.Scan(&entry.Path, &hasTests, &all, &statements, &functions, &ifs, &elses); err != nil {
			return nil, fmt.Errorf("scan gap: %w", err)
		}
		entry.HasTests = hasTests != 0
		columns := []struct {
			raw    string
			target *[]int
		}{
			{all, &entry.All},
			{statements, &entry.Statements},
			{functions, &entry.Functions},
			{ifs, &entry.Ifs},
			{elses, &entry.Elses},
		}
		for _, column := range columns {
			if err := json.Unmarshal([]byte(column.raw), column.target); err != nil {
				return nil, fmt.Errorf("decode gap lines: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, timestamp, repository, base_ref, head_ref, files_with_gaps, uncovered_lines
		FROM runs ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var ts int64
		if err := rows.Scan(&run.RunID, &ts, &run.Repository, &run.BaseRef, &run.HeadRef, &run.FilesWithGaps, &run.UncoveredLines); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Timestamp = time.Unix(ts, 0)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func encodeLineColumns(entry domain.GapEntry) ([5]string, error) {
	var columns [5]string
	for i, lines := range [][]int{entry.All, entry.Statements, entry.Functions, entry.Ifs, entry.Elses} {
		if lines == nil {
			lines = []int{}
		}
		encoded, err := json.Marshal(lines)
		if err != nil {
			return columns, fmt.Errorf("encode gap lines: %w", err)
		}
		columns[i] = string(encoded)
	}
	return columns, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
