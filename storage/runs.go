package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"goattend/attendance"
)

// Run is one persisted recording batch.
type Run struct {
	ID         string                     `json:"id"`
	Mode       string                     `json:"mode"`
	DryRun     bool                       `json:"dry_run"`
	StartedAt  time.Time                  `json:"started_at"`
	FinishedAt time.Time                  `json:"finished_at"`
	Result     attendance.RecordingResult `json:"result"`
}

const (
	insertRunStmt = `INSERT INTO recording_runs (id, mode, dry_run, started_at, finished_at, total, successful, failed)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);`
	insertOutcomeStmt = `INSERT INTO recording_outcomes (run_id, position, day, success, message, error, attempts)
VALUES (?, ?, ?, ?, ?, ?, ?);`
	listRunsStmt = `SELECT id, mode, dry_run, started_at, finished_at, total, successful, failed
FROM recording_runs ORDER BY started_at DESC, id LIMIT ?;`
	getRunStmt = `SELECT id, mode, dry_run, started_at, finished_at, total, successful, failed
FROM recording_runs WHERE id = ?;`
	listOutcomesStmt = `SELECT day, success, message, error, attempts
FROM recording_outcomes WHERE run_id = ? ORDER BY position;`
	lastSyncStmt = `SELECT MAX(finished_at) FROM recording_runs WHERE dry_run = 0;`
)

// SaveRun stores the run header and its outcomes in one transaction.
// An empty ID is replaced by a new uuid, which is returned.
func (s *SQLiteStore) SaveRun(run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}

	if _, err := tx.Exec(
		insertRunStmt,
		run.ID,
		run.Mode,
		boolToInt(run.DryRun),
		run.StartedAt.UTC().Format(time.RFC3339),
		run.FinishedAt.UTC().Format(time.RFC3339),
		run.Result.Total,
		run.Result.Successful,
		run.Result.Failed,
	); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("insert run: %w", err)
	}

	for i, outcome := range run.Result.Details {
		if _, err := tx.Exec(
			insertOutcomeStmt,
			run.ID,
			i,
			outcome.Date,
			boolToInt(outcome.Success),
			outcome.Message,
			outcome.Error,
			outcome.Attempts,
		); err != nil {
			_ = tx.Rollback()
			return "", fmt.Errorf("insert outcome for %s: %w", outcome.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}
	return run.ID, nil
}

// ListRuns returns the newest runs first, without outcome details.
func (s *SQLiteStore) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(listRunsStmt, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ListRunDetails is ListRuns with the outcomes of every run loaded.
func (s *SQLiteStore) ListRunDetails(limit int) ([]Run, error) {
	runs, err := s.ListRuns(limit)
	if err != nil {
		return nil, err
	}
	for i := range runs {
		detailed, err := s.GetRun(runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i] = detailed
	}
	return runs, nil
}

// GetRun loads one run including its outcomes in recording order.
func (s *SQLiteStore) GetRun(id string) (Run, error) {
	run, err := scanRun(s.db.QueryRow(getRunStmt, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, ErrRunNotFound
		}
		return Run{}, err
	}

	rows, err := s.db.Query(listOutcomesStmt, id)
	if err != nil {
		return Run{}, fmt.Errorf("query outcomes of run %s: %w", id, err)
	}
	defer rows.Close()

	run.Result.Details = make([]attendance.RecordingOutcome, 0, run.Result.Total)
	for rows.Next() {
		var (
			outcome attendance.RecordingOutcome
			success int
		)
		if err := rows.Scan(&outcome.Date, &success, &outcome.Message, &outcome.Error, &outcome.Attempts); err != nil {
			return Run{}, fmt.Errorf("scan outcome: %w", err)
		}
		outcome.Success = success != 0
		run.Result.Details = append(run.Result.Details, outcome)
	}
	if err := rows.Err(); err != nil {
		return Run{}, fmt.Errorf("iterate outcomes: %w", err)
	}
	return run, nil
}

// LastSync is the finish time of the most recent non dry-run batch.
func (s *SQLiteStore) LastSync() (time.Time, bool, error) {
	var raw sql.NullString
	if err := s.db.QueryRow(lastSyncStmt).Scan(&raw); err != nil {
		return time.Time{}, false, fmt.Errorf("query last sync: %w", err)
	}
	if !raw.Valid || raw.String == "" {
		return time.Time{}, false, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse last sync %q: %w", raw.String, err)
	}
	return parsed, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run         Run
		dryRun      int
		startedRaw  string
		finishedRaw string
	)
	if err := row.Scan(
		&run.ID,
		&run.Mode,
		&dryRun,
		&startedRaw,
		&finishedRaw,
		&run.Result.Total,
		&run.Result.Successful,
		&run.Result.Failed,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.DryRun = dryRun != 0

	var err error
	if run.StartedAt, err = time.Parse(time.RFC3339, startedRaw); err != nil {
		return Run{}, fmt.Errorf("parse run start %q: %w", startedRaw, err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339, finishedRaw); err != nil {
		return Run{}, fmt.Errorf("parse run finish %q: %w", finishedRaw, err)
	}
	return run, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
