package analyzer

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrRunNotFound indicates the requested profile run doesn't exist
var ErrRunNotFound = errors.New("profile run not found")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ns INTEGER NOT NULL,
		total_executions INTEGER NOT NULL,
		hot_count INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS hotspots (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		instr_offset INTEGER NOT NULL,
		count INTEGER NOT NULL,
		total_ns INTEGER NOT NULL,
		PRIMARY KEY (run_id, instr_offset)
	)`,
}

// Run is one stored profiling session.
type Run struct {
	ID              string
	Source          string
	StartedAt       time.Time
	Duration        time.Duration
	TotalExecutions uint64
	HotCount        int
}

// Store persists profile runs in a SQLite database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// OpenStore opens (creating if needed) the profile database at dbPath.
func OpenStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating profile directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	for _, ddl := range schema {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating tables: %w", err)
		}
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save stores the current samples of a as a new run and returns it.
func (s *Store) Save(source string, startedAt time.Time, duration time.Duration, a *PerformanceAnalyzer) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := a.Statistics()
	run := Run{
		ID:              uuid.NewString(),
		Source:          source,
		StartedAt:       startedAt,
		Duration:        duration,
		TotalExecutions: stats.TotalExecutions,
		HotCount:        stats.HotCount,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Run{}, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		"INSERT INTO runs (id, source, started_at, duration_ns, total_executions, hot_count) VALUES (?, ?, ?, ?, ?, ?)",
		run.ID, run.Source, run.StartedAt.UnixNano(), int64(run.Duration), int64(run.TotalExecutions), run.HotCount,
	)
	if err != nil {
		return Run{}, fmt.Errorf("saving run: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO hotspots (run_id, instr_offset, count, total_ns) VALUES (?, ?, ?, ?)")
	if err != nil {
		return Run{}, fmt.Errorf("preparing hotspot insert: %w", err)
	}
	defer stmt.Close()

	for _, h := range a.Hotspots() {
		if _, err := stmt.Exec(run.ID, h.Offset, int64(h.Count), int64(h.TotalTime)); err != nil {
			return Run{}, fmt.Errorf("saving hotspot %d: %w", h.Offset, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("committing run: %w", err)
	}

	log.Infof("saved profile run %s for %s (%d executions)", run.ID, run.Source, run.TotalExecutions)
	return run, nil
}

// Runs returns up to limit runs, newest first. A limit <= 0 returns all runs.
func (s *Store) Runs(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		"SELECT id, source, started_at, duration_ns, total_executions, hot_count FROM runs ORDER BY started_at DESC, id LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run      Run
			started  int64
			duration int64
			total    int64
		)
		if err := rows.Scan(&run.ID, &run.Source, &started, &duration, &total, &run.HotCount); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.StartedAt = time.Unix(0, started)
		run.Duration = time.Duration(duration)
		run.TotalExecutions = uint64(total)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Hotspots returns the stored samples of a run, most executed first.
func (s *Store) Hotspots(runID string) ([]Hotspot, error) {
	var exists int
	err := s.db.QueryRow("SELECT 1 FROM runs WHERE id = ?", runID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("querying run: %w", err)
	}

	rows, err := s.db.Query(
		"SELECT instr_offset, count, total_ns FROM hotspots WHERE run_id = ? ORDER BY count DESC, instr_offset",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying hotspots: %w", err)
	}
	defer rows.Close()

	var out []Hotspot
	for rows.Next() {
		var (
			h     Hotspot
			count int64
			total int64
		)
		if err := rows.Scan(&h.Offset, &count, &total); err != nil {
			return nil, fmt.Errorf("scanning hotspot: %w", err)
		}
		h.Count = uint64(count)
		h.TotalTime = time.Duration(total)
		if h.Count > 0 {
			h.AverageTime = h.TotalTime / time.Duration(h.Count)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
