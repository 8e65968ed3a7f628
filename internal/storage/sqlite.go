// Package storage keeps a SQLite history of audit runs so coverage gaps can
// be compared across runs without re-reading old CSV files.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ojs-tools/pnaudit/internal/report"
	_ "modernc.org/sqlite"
)

// ErrNoRuns is returned when a query needs a run and none has been recorded.
var ErrNoRuns = errors.New("no audit runs recorded")

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// Run summarises one recorded audit.
type Run struct {
	ID                int64
	StartedAt         time.Time
	FinishedAt        time.Time // zero while running or after an abort
	ManifestGenerated string
	Journals          int
	Issues            int
	Unpreserved       int
}

// RunTotals are recorded when a run finishes.
type RunTotals struct {
	Journals    int
	Issues      int
	Unpreserved int
}

// selectRowFields lists audit_rows columns in report.Header order.
const selectRowFields = `journal_url, issue_id, issue_title, issue_volume, issue_number,
	issue_year, issue_date_published, pn_issn, pn_title, pn_published, pn_deposited`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			manifest_generated TEXT,
			journals INTEGER NOT NULL DEFAULT 0,
			issues INTEGER NOT NULL DEFAULT 0,
			unpreserved INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS audit_rows (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			seq INTEGER NOT NULL,
			journal_url TEXT NOT NULL,
			issue_id TEXT,
			issue_title TEXT,
			issue_volume TEXT,
			issue_number TEXT,
			issue_year TEXT,
			issue_date_published TEXT,
			pn_issn TEXT,
			pn_title TEXT,
			pn_published TEXT,
			pn_deposited TEXT,
			preserved INTEGER NOT NULL,
			PRIMARY KEY (run_id, seq)
		);

		CREATE INDEX IF NOT EXISTS idx_audit_rows_journal ON audit_rows(journal_url);
	`

	_, err := db.Exec(schema)
	return err
}

// StartRun records the beginning of an audit and returns its id.
func (d *DB) StartRun(startedAt time.Time, manifestGenerated string) (int64, error) {
	res, err := d.db.Exec(
		`INSERT INTO runs (started_at, manifest_generated) VALUES (?, ?)`,
		startedAt.UTC().Format(time.RFC3339), manifestGenerated,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}
	return id, nil
}

// AppendRow stores one audit row under runID, keeping discovery order.
func (d *DB) AppendRow(runID int64, row report.Row) error {
	preserved := 0
	if row.Preserved() {
		preserved = 1
	}

	_, err := d.db.Exec(`
		INSERT INTO audit_rows (
			run_id, seq, `+selectRowFields+`, preserved
		) VALUES (
			?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM audit_rows WHERE run_id = ?),
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		)`,
		runID, runID,
		row.JournalURL, row.IssueID, row.IssueTitle, row.IssueVolume, row.IssueNumber,
		row.IssueYear, row.IssueDatePublished, row.PNISSN, row.PNTitle, row.PNPublished, row.PNDeposited,
		preserved,
	)
	if err != nil {
		return fmt.Errorf("inserting audit row for %s issue %s: %w", row.JournalURL, row.IssueID, err)
	}
	return nil
}

// FinishRun marks a run complete.
func (d *DB) FinishRun(runID int64, finishedAt time.Time, totals RunTotals) error {
	res, err := d.db.Exec(`
		UPDATE runs SET finished_at = ?, journals = ?, issues = ?, unpreserved = ?
		WHERE id = ?`,
		finishedAt.UTC().Format(time.RFC3339), totals.Journals, totals.Issues, totals.Unpreserved, runID,
	)
	if err != nil {
		return fmt.Errorf("updating run %d: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("updating run %d: not found", runID)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (d *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.db.Query(`
		SELECT id, started_at, finished_at, manifest_generated, journals, issues, unpreserved
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		var finished, generated sql.NullString
		if err := rows.Scan(&r.ID, &started, &finished, &generated, &r.Journals, &r.Issues, &r.Unpreserved); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339, started); err != nil {
			return nil, fmt.Errorf("scanning run %d: started_at: %w", r.ID, err)
		}
		if finished.Valid && finished.String != "" {
			if r.FinishedAt, err = time.Parse(time.RFC3339, finished.String); err != nil {
				return nil, fmt.Errorf("scanning run %d: finished_at: %w", r.ID, err)
			}
		}
		r.ManifestGenerated = generated.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LatestRunID returns the id of the most recent run.
func (d *DB) LatestRunID() (int64, error) {
	var id sql.NullInt64
	if err := d.db.QueryRow(`SELECT MAX(id) FROM runs`).Scan(&id); err != nil {
		return 0, fmt.Errorf("querying latest run: %w", err)
	}
	if !id.Valid {
		return 0, ErrNoRuns
	}
	return id.Int64, nil
}

// ListUnpreserved returns the rows of a run whose published issue was not
// found in the manifest, optionally limited to one journal. A zero runID means
// the latest run. Journal placeholder rows (no issue id) and unpublished issues
// (no date published) are skipped.
func (d *DB) ListUnpreserved(runID int64, journalURL string) ([]report.Row, error) {
	if runID == 0 {
		latest, err := d.LatestRunID()
		if err != nil {
			return nil, err
		}
		runID = latest
	}

	query := `SELECT ` + selectRowFields + ` FROM audit_rows
		WHERE run_id = ? AND preserved = 0 AND issue_id != '' AND issue_date_published != ''`
	args := []any{runID}
	if journalURL != "" {
		query += ` AND journal_url = ?`
		args = append(args, journalURL)
	}
	query += ` ORDER BY seq`

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing unpreserved issues: %w", err)
	}
	defer rows.Close()

	var out []report.Row
	for rows.Next() {
		var r report.Row
		if err := rows.Scan(
			&r.JournalURL, &r.IssueID, &r.IssueTitle, &r.IssueVolume, &r.IssueNumber,
			&r.IssueYear, &r.IssueDatePublished, &r.PNISSN, &r.PNTitle, &r.PNPublished, &r.PNDeposited,
		); err != nil {
			return nil, fmt.Errorf("scanning audit row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
