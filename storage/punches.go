package storage

import (
	"fmt"
	"time"

	"goattend/attendance"
)

const (
	insertPunchStmt = `INSERT OR IGNORE INTO punches (start_utc, end_utc, source_file) VALUES (?, ?, ?);`
	listPunchesStmt = `SELECT id, start_utc, end_utc, source_file FROM punches ORDER BY start_utc, id;`
	clearPunchStmt  = `DELETE FROM punches;`
)

// InsertPunches stores punches in UTC; an identical start/end pair is kept once.
func (s *SQLiteStore) InsertPunches(punches []attendance.Punch) (int, error) {
	if len(punches) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(insertPunchStmt)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare insert statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, punch := range punches {
		res, err := stmt.Exec(
			punch.Start.UTC().Format(time.RFC3339),
			punch.End.UTC().Format(time.RFC3339),
			punch.SourceFile,
		)
		if err != nil {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("insert punch: %w", err)
		}

		rows, err := res.RowsAffected()
		if err == nil && rows > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("commit transaction: %w", err)
	}

	return inserted, nil
}

func (s *SQLiteStore) ListPunches() ([]attendance.Punch, error) {
	rows, err := s.db.Query(listPunchesStmt)
	if err != nil {
		return nil, fmt.Errorf("query punches: %w", err)
	}
	defer rows.Close()

	punches := make([]attendance.Punch, 0, 256)
	for rows.Next() {
		var (
			punch    attendance.Punch
			startRaw string
			endRaw   string
		)
		if err := rows.Scan(&punch.ID, &startRaw, &endRaw, &punch.SourceFile); err != nil {
			return nil, fmt.Errorf("scan punch: %w", err)
		}

		punch.Start, err = time.Parse(time.RFC3339, startRaw)
		if err != nil {
			return nil, fmt.Errorf("parse punch start %q: %w", startRaw, err)
		}
		punch.End, err = time.Parse(time.RFC3339, endRaw)
		if err != nil {
			return nil, fmt.Errorf("parse punch end %q: %w", endRaw, err)
		}
		punches = append(punches, punch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate punches: %w", err)
	}

	return punches, nil
}

func (s *SQLiteStore) DeleteAllPunches() (int64, error) {
	res, err := s.db.Exec(clearPunchStmt)
	if err != nil {
		return 0, fmt.Errorf("delete punches: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read deleted row count: %w", err)
	}
	return rows, nil
}
