// Package history keeps a log of pipeline runs in a SQLite database.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// Run outcomes
const (
	OutcomeCompleted = "completed"
	OutcomeStopped   = "stopped"
	OutcomeFailed    = "failed"
)

// ErrNotFound is returned when a run id is unknown
var ErrNotFound = errors.New("run not found")

// FileResult is the status of one input file within a run
type FileResult struct {
	FileName     string
	KeywordCount int
	RowCount     int
	Status       string
}

// Run is one recorded pipeline execution
type Run struct {
	ID              string
	StartedAt       time.Time
	FinishedAt      time.Time
	Outcome         string
	FileCount       int
	FailedFiles     int
	Keywords        int
	Batches         int
	DegradedBatches int
	Attempts        int
	BatchSize       int
	Concurrency     int
	Output          string
	Files           []FileResult
}

// Duration returns how long the run took
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// NewRunID returns a fresh run identifier
func NewRunID() string {
	return uuid.NewString()
}

// Store records runs
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. The path can be ":memory:".
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive between calls
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w\nStatement: %s", err, stmt)
		}
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a run and its file results. An empty ID is filled in.
func (s *Store) Record(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = NewRunID()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, outcome, file_count, failed_files,
			keywords, batches, degraded_batches, attempts, batch_size, concurrency, output)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, formatTime(run.StartedAt), formatTime(run.FinishedAt), run.Outcome,
		run.FileCount, run.FailedFiles, run.Keywords, run.Batches, run.DegradedBatches,
		run.Attempts, run.BatchSize, run.Concurrency, run.Output)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for i, f := range run.Files {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_files (run_id, position, file_name, keyword_count, row_count, status)
			VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, i, f.FileName, f.KeywordCount, f.RowCount, f.Status)
		if err != nil {
			return fmt.Errorf("failed to insert file %s: %w", f.FileName, err)
		}
	}

	return tx.Commit()
}

// Recent returns up to n runs, newest first, with their file results
func (s *Store) Recent(ctx context.Context, n int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, outcome, file_count, failed_files,
			keywords, batches, degraded_batches, attempts, batch_size, concurrency, output
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	rows.Close()

	for i := range runs {
		files, err := s.files(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Files = files
	}
	return runs, nil
}

// Get returns a single run by id
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, outcome, file_count, failed_files,
			keywords, batches, degraded_batches, attempts, batch_size, concurrency, output
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	run.Files, err = s.files(ctx, id)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *Store) files(ctx context.Context, runID string) ([]FileResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT file_name, keyword_count, row_count, status
		FROM run_files WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run files: %w", err)
	}
	defer rows.Close()

	var files []FileResult
	for rows.Next() {
		var f FileResult
		if err := rows.Scan(&f.FileName, &f.KeywordCount, &f.RowCount, &f.Status); err != nil {
			return nil, fmt.Errorf("failed to scan run file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var run Run
	var started, finished string
	err := sc.Scan(&run.ID, &started, &finished, &run.Outcome, &run.FileCount, &run.FailedFiles,
		&run.Keywords, &run.Batches, &run.DegradedBatches, &run.Attempts, &run.BatchSize,
		&run.Concurrency, &run.Output)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("failed to scan run: %w", err)
	}

	if run.StartedAt, err = parseTime(started); err != nil {
		return run, err
	}
	if run.FinishedAt, err = parseTime(finished); err != nil {
		return run, err
	}
	return run, nil
}

// timeLayout is fixed width so stored timestamps sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
