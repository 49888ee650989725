package recorder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"goattend/attendance"
	"goattend/internal/timeutil"
	"goattend/personio"
	"goattend/profile"
	"goattend/storage"
)

type Mode string

const (
	ModeProfile Mode = "profile"
	ModeImport  Mode = "import"
)

// Request selects what a workflow run records.
type Request struct {
	Mode Mode
	// Imported holds aggregated periods by date (import mode only).
	Imported map[string][]attendance.Period
	// From and To bound the dates considered, inclusive. Empty means the
	// current month in profile mode and all imported dates in import mode.
	From   string
	To     string
	DryRun bool
}

type Report struct {
	Mode       Mode
	DryRun     bool
	Recordable []attendance.RecordableDay
	Skips      []attendance.Skip
	Result     attendance.RecordingResult
	StartedAt  time.Time
	FinishedAt time.Time
}

// StoredRun converts the report into the persisted run record.
func (r *Report) StoredRun() storage.Run {
	return storage.Run{
		Mode:       string(r.Mode),
		DryRun:     r.DryRun,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Result:     r.Result,
	}
}

// Workflow runs pre-flight checks, reads the timesheet, selects days and
// drives the batch.
type Workflow struct {
	Protocol *Protocol
	Profile  profile.WorkProfile
	DayDelay time.Duration
	Progress ProgressFunc
	Now      func() time.Time
}

type dateRange struct {
	start time.Time
	end   time.Time
}

func (w *Workflow) Run(ctx context.Context, req Request) (*Report, error) {
	if err := profile.Validate(w.Profile); err != nil {
		return nil, err
	}
	loc, err := w.Profile.Location()
	if err != nil {
		return nil, err
	}
	if _, err := w.Protocol.Session.CurrentToken(ctx); err != nil {
		return nil, err
	}

	report := &Report{Mode: req.Mode, DryRun: req.DryRun, StartedAt: w.now()}

	var ranges []dateRange
	var imported map[string][]attendance.Period
	switch req.Mode {
	case ModeProfile, "":
		report.Mode = ModeProfile
		ranges, err = w.profileRange(req, loc)
	case ModeImport:
		imported, err = filterImported(req.Imported, req.From, req.To)
		if err == nil {
			ranges, err = importRanges(imported, loc)
		}
	default:
		err = fmt.Errorf("unknown recording mode %q", req.Mode)
	}
	if err != nil {
		return nil, err
	}

	sheet, err := w.readTimesheets(ctx, ranges)
	if err != nil {
		return nil, err
	}

	if report.Mode == ModeImport {
		report.Recordable, report.Skips = SelectImportDays(sheet, imported)
	} else {
		report.Recordable, report.Skips = SelectProfileDays(sheet, w.Profile)
	}
	for _, skip := range report.Skips {
		w.Protocol.log().Debugw("day skipped", "date", skip.Date, "reason", skip.Reason, "detail", skip.Detail)
	}

	if req.DryRun {
		report.Result = attendance.RecordingResult{Details: []attendance.RecordingOutcome{}}
		report.FinishedAt = w.now()
		return report, nil
	}

	batch := &Batch{Protocol: w.Protocol, DayDelay: w.DayDelay, Progress: w.Progress}
	if report.Mode == ModeProfile {
		p := w.Profile
		batch.Profile = &p
	}
	report.Result = batch.Run(ctx, report.Recordable)
	report.FinishedAt = w.now()
	return report, nil
}

func (w *Workflow) profileRange(req Request, loc *time.Location) ([]dateRange, error) {
	if req.From == "" && req.To == "" {
		first, last := timeutil.MonthRange(w.now().In(loc))
		return []dateRange{{start: first, end: last}}, nil
	}
	if req.From == "" || req.To == "" {
		return nil, errors.New("both from and to are required for a custom range")
	}
	start, err := timeutil.ParseDate(req.From, loc)
	if err != nil {
		return nil, fmt.Errorf("parse from date: %w", err)
	}
	end, err := timeutil.ParseDate(req.To, loc)
	if err != nil {
		return nil, fmt.Errorf("parse to date: %w", err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("to date %s is before from date %s", req.To, req.From)
	}
	return []dateRange{{start: start, end: end}}, nil
}

// importRanges covers the imported dates with one range per calendar month.
func importRanges(imported map[string][]attendance.Period, loc *time.Location) ([]dateRange, error) {
	dates := make([]time.Time, 0, len(imported))
	for date := range imported {
		parsed, err := timeutil.ParseDate(date, loc)
		if err != nil {
			return nil, fmt.Errorf("imported date %q: %w", date, err)
		}
		dates = append(dates, parsed)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	ranges := make([]dateRange, 0, 2)
	for _, date := range dates {
		last := len(ranges) - 1
		if last >= 0 && sameMonth(ranges[last].start, date) {
			ranges[last].end = date
			continue
		}
		ranges = append(ranges, dateRange{start: date, end: date})
	}
	return ranges, nil
}

func filterImported(imported map[string][]attendance.Period, from, to string) (map[string][]attendance.Period, error) {
	filtered := make(map[string][]attendance.Period, len(imported))
	for date, periods := range imported {
		if from != "" && date < from {
			continue
		}
		if to != "" && date > to {
			continue
		}
		filtered[date] = periods
	}
	if len(filtered) == 0 {
		return nil, errors.New("no imported days in the selected range; run \"goattend import\" first")
	}
	return filtered, nil
}

// readTimesheets reads each range in order and concatenates the timecards.
// A date returned by two reads is kept once by the selector.
func (w *Workflow) readTimesheets(ctx context.Context, ranges []dateRange) (attendance.Timesheet, error) {
	merged := attendance.Timesheet{}
	for _, r := range ranges {
		sheet, err := w.Protocol.ReadTimesheet(ctx, personio.TimesheetQuery{
			EmployeeID: w.Protocol.EmployeeID,
			StartDate:  timeutil.FormatDate(r.start),
			EndDate:    timeutil.FormatDate(r.end),
			Timezone:   w.Profile.Timezone,
		})
		if err != nil {
			return attendance.Timesheet{}, err
		}
		merged.Timecards = append(merged.Timecards, sheet.Timecards...)
	}
	return merged, nil
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

func (w *Workflow) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}
