package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"goattend/attendance"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "goattend_test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mustParseRFC3339(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return parsed
}

func TestSQLiteStore_PunchesDeduplicateAcrossImports(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	punches := []attendance.Punch{
		{
			Start:      mustParseRFC3339(t, "2024-01-01T12:00:00+01:00"),
			End:        mustParseRFC3339(t, "2024-01-01T17:00:00+01:00"),
			SourceFile: "january.json",
		},
		{
			Start:      mustParseRFC3339(t, "2024-01-01T07:00:00Z"),
			End:        mustParseRFC3339(t, "2024-01-01T10:30:00Z"),
			SourceFile: "january.json",
		},
	}

	inserted, err := store.InsertPunches(punches)
	if err != nil {
		t.Fatalf("insert punches: %v", err)
	}
	if inserted != 2 {
		t.Fatalf("expected 2 inserted, got %d", inserted)
	}

	// same instants written with another offset are duplicates
	again := []attendance.Punch{{
		Start:      mustParseRFC3339(t, "2024-01-01T11:00:00Z"),
		End:        mustParseRFC3339(t, "2024-01-01T16:00:00Z"),
		SourceFile: "other.csv",
	}}
	inserted, err = store.InsertPunches(again)
	if err != nil {
		t.Fatalf("insert duplicate: %v", err)
	}
	if inserted != 0 {
		t.Fatalf("expected duplicate to be ignored, got %d inserted", inserted)
	}

	listed, err := store.ListPunches()
	if err != nil {
		t.Fatalf("list punches: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 punches, got %d", len(listed))
	}
	if !listed[0].Start.Equal(punches[1].Start) || listed[0].ID == 0 {
		t.Fatalf("expected punches ordered by start, got %+v", listed)
	}
	if listed[1].SourceFile != "january.json" {
		t.Fatalf("unexpected source file %q", listed[1].SourceFile)
	}

	deleted, err := store.DeleteAllPunches()
	if err != nil {
		t.Fatalf("delete punches: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", deleted)
	}
}

func TestSQLiteStore_RunsRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	started := mustParseRFC3339(t, "2024-03-10T08:00:00Z")

	result := attendance.RecordingResult{}
	result.Add(attendance.RecordingOutcome{Date: "2024-03-04", Success: true, Message: "recorded 3 periods", Attempts: 1})
	result.Add(attendance.RecordingOutcome{Date: "2024-03-05", Error: "HTTP 500: boom", Attempts: 3})
	result.Total = 2

	id, err := store.SaveRun(Run{
		Mode:       "profile",
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Result:     result,
	})
	if err != nil {
		t.Fatalf("save run: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated run id")
	}

	if _, err := store.SaveRun(Run{
		ID:         "dry",
		Mode:       "import",
		DryRun:     true,
		StartedAt:  started.Add(time.Hour),
		FinishedAt: started.Add(2 * time.Hour),
	}); err != nil {
		t.Fatalf("save dry run: %v", err)
	}

	run, err := store.GetRun(id)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if run.Result.Total != 2 || run.Result.Failed != 1 || len(run.Result.Details) != 2 {
		t.Fatalf("unexpected run: %+v", run)
	}
	if run.Result.Details[1].Error != "HTTP 500: boom" || run.Result.Details[1].Attempts != 3 || run.Result.Details[1].Success {
		t.Fatalf("unexpected outcome: %+v", run.Result.Details[1])
	}

	runs, err := store.ListRuns(10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "dry" || !runs[0].DryRun {
		t.Fatalf("expected newest run first, got %+v", runs)
	}

	detailed, err := store.ListRunDetails(10)
	if err != nil {
		t.Fatalf("list run details: %v", err)
	}
	if len(detailed) != 2 || len(detailed[1].Result.Details) != 2 || detailed[1].Result.Details[0].Date != "2024-03-04" {
		t.Fatalf("expected outcomes loaded for every run, got %+v", detailed)
	}

	lastSync, ok, err := store.LastSync()
	if err != nil {
		t.Fatalf("last sync: %v", err)
	}
	if !ok || !lastSync.Equal(started.Add(time.Minute)) {
		t.Fatalf("dry runs must not count as sync, got %s", lastSync)
	}

	if _, err := store.GetRun("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestSQLiteStore_LastSyncEmpty(t *testing.T) {
	t.Parallel()

	_, ok, err := openTestStore(t).LastSync()
	if err != nil {
		t.Fatalf("last sync: %v", err)
	}
	if ok {
		t.Fatal("expected no sync on empty database")
	}
}
