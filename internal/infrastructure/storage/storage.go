// Package storage persists tagging runs, their tag records, and backups
// of fetched ledger state in a local SQLite database.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Repository defines the storage interface. It allows swapping
// implementations and makes testing API handlers with mocks simple.
type Repository interface {
	SaveRun(run *TaggingRun) error
	ListRuns(limit int) ([]*TaggingRun, error)
	GetRun(id string) (*TaggingRun, error)
	SaveTagRecords(records []*TagRecord) error
	ListTagRecords(runID string) ([]*TagRecord, error)
	GetStats() (*Stats, error)
	SaveBackup(transactionsJSON, categoriesJSON []byte) error
	LatestBackup() (transactionsJSON, categoriesJSON []byte, err error)
	Close() error
}

// Storage provides SQLite database access for tagging runs.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveRun inserts or replaces a tagging run.
func (s *Storage) SaveRun(run *TaggingRun) error {
	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return fmt.Errorf("failed to serialize run stats: %w", err)
	}

	_, err = s.db.Exec(`
	INSERT OR REPLACE INTO tagging_runs
	(id, started_at, finished_at, dry_run, itemize, stats_json)
	VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.FinishedAt, run.DryRun, run.Itemize, string(statsJSON))
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Storage) ListRuns(limit int) ([]*TaggingRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
	SELECT id, started_at, finished_at, dry_run, itemize, stats_json
	FROM tagging_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*TaggingRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run by id, or nil when absent.
func (s *Storage) GetRun(id string) (*TaggingRun, error) {
	row := s.db.QueryRow(`
	SELECT id, started_at, finished_at, dry_run, itemize, stats_json
	FROM tagging_runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (*TaggingRun, error) {
	var run TaggingRun
	if err := r.Scan(&run.ID, &run.StartedAt, &run.FinishedAt,
		&run.DryRun, &run.Itemize, &run.StatsJSON); err != nil {
		return nil, err
	}
	if run.StatsJSON != "" {
		if err := json.Unmarshal([]byte(run.StatsJSON), &run.Stats); err != nil {
			return nil, fmt.Errorf("failed to parse run stats: %w", err)
		}
	}
	return &run, nil
}

// SaveTagRecords stores the tag records of a run in one transaction.
func (s *Storage) SaveTagRecords(records []*TagRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	for _, rec := range records {
		replJSON, err := json.Marshal(rec.Replacements)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to serialize replacements: %w", err)
		}
		_, err = tx.Exec(`
		INSERT INTO tag_records
		(run_id, transaction_id, transaction_date, description, amount,
		 replacement_count, replacements_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.RunID, rec.TransactionID, rec.TransactionDate, rec.Description,
			rec.Amount, rec.ReplacementCount, string(replJSON))
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to save tag record: %w", err)
		}
	}
	return tx.Commit()
}

// ListTagRecords returns the tag records of a run.
func (s *Storage) ListTagRecords(runID string) ([]*TagRecord, error) {
	rows, err := s.db.Query(`
	SELECT id, run_id, transaction_id, transaction_date, description, amount,
	       replacement_count, replacements_json
	FROM tag_records WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tag records: %w", err)
	}
	defer rows.Close()

	var records []*TagRecord
	for rows.Next() {
		var rec TagRecord
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.TransactionID,
			&rec.TransactionDate, &rec.Description, &rec.Amount,
			&rec.ReplacementCount, &rec.ReplacementsJSON); err != nil {
			return nil, err
		}
		if rec.ReplacementsJSON != "" {
			if err := json.Unmarshal([]byte(rec.ReplacementsJSON), &rec.Replacements); err != nil {
				return nil, fmt.Errorf("failed to parse replacements: %w", err)
			}
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// GetStats aggregates run statistics.
func (s *Storage) GetStats() (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRow(`
	SELECT COUNT(*), COALESCE(SUM(dry_run), 0) FROM tagging_runs`).
		Scan(&stats.TotalRuns, &stats.DryRunCount)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate runs: %w", err)
	}

	err = s.db.QueryRow(`SELECT COUNT(*) FROM tag_records`).Scan(&stats.TotalTagged)
	if err != nil {
		return nil, fmt.Errorf("failed to count tag records: %w", err)
	}

	var lastID string
	var lastAt time.Time
	err = s.db.QueryRow(`
	SELECT id, started_at FROM tagging_runs ORDER BY started_at DESC LIMIT 1`).
		Scan(&lastID, &lastAt)
	if err == nil {
		stats.LastRunAt = lastAt
		err = s.db.QueryRow(`SELECT COUNT(*) FROM tag_records WHERE run_id = ?`, lastID).
			Scan(&stats.LastRunTagged)
	}
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to read last run: %w", err)
	}

	return stats, nil
}

// SaveBackup stores a snapshot of fetched ledger transactions and
// categories so a later run can replay without refetching.
func (s *Storage) SaveBackup(transactionsJSON, categoriesJSON []byte) error {
	_, err := s.db.Exec(`
	INSERT INTO ledger_backups (created_at, transactions_json, categories_json)
	VALUES (?, ?, ?)`, time.Now(), string(transactionsJSON), string(categoriesJSON))
	if err != nil {
		return fmt.Errorf("failed to save ledger backup: %w", err)
	}
	return nil
}

// LatestBackup returns the most recent ledger snapshot.
func (s *Storage) LatestBackup() ([]byte, []byte, error) {
	var trans, cats string
	err := s.db.QueryRow(`
	SELECT transactions_json, categories_json FROM ledger_backups
	ORDER BY created_at DESC, id DESC LIMIT 1`).Scan(&trans, &cats)
	if err == sql.ErrNoRows {
		return nil, nil, fmt.Errorf("no ledger backup recorded")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load ledger backup: %w", err)
	}
	return []byte(trans), []byte(cats), nil
}
