package importer

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"goattend/attendance"
)

type Result struct {
	FilesProcessed int
	EntriesRead    int
	Punches        []attendance.Punch
	// Errors holds one *attendance.ParseError per rejected entry.
	Errors []error
}

type Summary struct {
	TotalEntries int
	Valid        int
	Invalid      int
	FirstDate    string
	LastDate     string
	Days         int
	Worked       time.Duration
}

// Run reads every file and parses its punches. Invalid entries are
// collected in Result.Errors; a file without a single valid entry is
// rejected with the itemized entry errors.
func Run(paths []string, format string, loc *time.Location) (*Result, error) {
	result := &Result{Punches: make([]attendance.Punch, 0, 256)}
	for _, path := range paths {
		sourceFormat, err := inferFormat(path, format)
		if err != nil {
			return nil, err
		}
		reader, err := ReaderForFormat(sourceFormat)
		if err != nil {
			return nil, err
		}

		records, err := reader.Read(path)
		if err != nil {
			return nil, err
		}

		valid, entryErrors := parseRecords(records, path, loc)
		if len(valid) == 0 {
			return nil, rejectFile(path, entryErrors)
		}

		result.FilesProcessed++
		result.EntriesRead += len(records)
		result.Punches = append(result.Punches, valid...)
		result.Errors = append(result.Errors, entryErrors...)
	}

	return result, nil
}

func parseRecords(records []Record, path string, loc *time.Location) ([]attendance.Punch, []error) {
	valid := make([]attendance.Punch, 0, len(records))
	var entryErrors []error
	for _, record := range records {
		punch, err := ParsePunch(record, loc)
		if err != nil {
			entryErrors = append(entryErrors, err)
			continue
		}
		punch.SourceFile = path
		valid = append(valid, punch)
	}
	return valid, entryErrors
}

func rejectFile(path string, entryErrors []error) error {
	problems := make([]string, 0, len(entryErrors))
	for _, err := range entryErrors {
		problems = append(problems, err.Error())
	}
	if len(problems) == 0 {
		problems = append(problems, "no entries")
	}
	return fmt.Errorf("file %s has no valid entries: %w", path, &attendance.ValidationError{Problems: problems})
}

// Summarize describes the parsed punches by local date in loc.
func (r *Result) Summarize(loc *time.Location) Summary {
	summary := Summary{
		TotalEntries: len(r.Punches) + len(r.Errors),
		Valid:        len(r.Punches),
		Invalid:      len(r.Errors),
	}
	dates := Dates(GroupByDate(r.Punches, loc))
	summary.Days = len(dates)
	if len(dates) > 0 {
		summary.FirstDate = dates[0]
		summary.LastDate = dates[len(dates)-1]
	}
	for _, punch := range r.Punches {
		summary.Worked += punch.End.Sub(punch.Start)
	}
	return summary
}

func inferFormat(path string, format string) (string, error) {
	if strings.TrimSpace(format) != "" {
		return format, nil
	}

	extension := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch extension {
	case "json":
		return "json", nil
	case "csv":
		return "csv", nil
	case "xlsx", "xlsm", "xls":
		return "excel", nil
	default:
		return "", fmt.Errorf("unsupported file extension for %s", path)
	}
}
