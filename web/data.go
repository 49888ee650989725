package web

import (
	"goattend/output"
	"goattend/profile"
	"goattend/storage"
)

// DayRow is one imported day with its most recent recording outcome.
type DayRow struct {
	Date          string `json:"date"`
	Start         string `json:"start"`
	End           string `json:"end"`
	WorkedMinutes int    `json:"worked_minutes"`
	BreakMinutes  int    `json:"break_minutes"`
	Periods       int    `json:"periods"`
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
}

type ScheduleRow struct {
	Weekday    string `json:"weekday"`
	Enabled    bool   `json:"enabled"`
	WorkStart  string `json:"work_start"`
	WorkEnd    string `json:"work_end"`
	BreakStart string `json:"break_start"`
	BreakEnd   string `json:"break_end"`
}

type ProfileView struct {
	Instance   string        `json:"instance"`
	EmployeeID int64         `json:"employee_id"`
	Timezone   string        `json:"timezone"`
	Schedule   []ScheduleRow `json:"schedule"`
}

const (
	statusPending  = "pending"
	statusRecorded = "recorded"
	statusFailed   = "failed"
)

// BuildDayRows joins daily summaries with run outcomes. Runs are expected
// newest first; the first outcome seen for a date wins. Dry runs are ignored.
func BuildDayRows(summaries []output.DailySummary, runs []storage.Run) []DayRow {
	type latest struct {
		success bool
		message string
	}
	outcomes := make(map[string]latest)
	for _, run := range runs {
		if run.DryRun {
			continue
		}
		for _, outcome := range run.Result.Details {
			if _, seen := outcomes[outcome.Date]; seen {
				continue
			}
			message := outcome.Message
			if !outcome.Success {
				message = outcome.Error
			}
			outcomes[outcome.Date] = latest{success: outcome.Success, message: message}
		}
	}

	rows := make([]DayRow, 0, len(summaries))
	for _, summary := range summaries {
		row := DayRow{
			Date:          summary.Date,
			Start:         summary.Start,
			End:           summary.End,
			WorkedMinutes: summary.WorkedMinutes,
			BreakMinutes:  summary.BreakMinutes,
			Periods:       summary.PeriodCount,
			Status:        statusPending,
		}
		if outcome, ok := outcomes[summary.Date]; ok {
			row.Status = statusFailed
			if outcome.success {
				row.Status = statusRecorded
			}
			row.Message = outcome.message
		}
		rows = append(rows, row)
	}
	return rows
}

// BuildProfileView lists all seven weekdays of the normalized profile.
func BuildProfileView(p profile.WorkProfile) ProfileView {
	view := ProfileView{
		Instance:   p.Instance,
		EmployeeID: p.EmployeeID,
		Timezone:   p.Timezone,
		Schedule:   make([]ScheduleRow, 0, 7),
	}
	for weekday := 1; weekday <= 7; weekday++ {
		day, _ := p.DayFor(weekday)
		view.Schedule = append(view.Schedule, ScheduleRow{
			Weekday:    profile.WeekdayName(weekday),
			Enabled:    day.Enabled,
			WorkStart:  day.WorkStart,
			WorkEnd:    day.WorkEnd,
			BreakStart: day.BreakStart,
			BreakEnd:   day.BreakEnd,
		})
	}
	return view
}
