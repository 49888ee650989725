package output

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"goattend/attendance"
	"goattend/storage"
)

// OutcomeTable lists every recorded day of the given runs.
func OutcomeTable(runs []storage.Run) Table {
	table := Table{Headers: []string{"RunID", "Mode", "StartedAt", "Date", "Success", "Attempts", "Message", "Error"}}
	for _, run := range runs {
		for _, outcome := range run.Result.Details {
			table.Rows = append(table.Rows, []string{
				run.ID,
				run.Mode,
				run.StartedAt.Format(time.RFC3339),
				outcome.Date,
				strconv.FormatBool(outcome.Success),
				strconv.Itoa(outcome.Attempts),
				outcome.Message,
				outcome.Error,
			})
		}
	}
	return table
}

// PeriodTable lists periods by date in ascending date order.
func PeriodTable(byDate map[string][]attendance.Period) Table {
	table := Table{Headers: []string{"Date", "Type", "Start", "End", "Minutes"}}
	for _, date := range sortedDates(byDate) {
		for _, period := range byDate[date] {
			minutes := ""
			if duration, err := period.Duration(); err == nil {
				minutes = strconv.Itoa(int(duration.Minutes()))
			}
			table.Rows = append(table.Rows, []string{date, string(period.PeriodType), period.Start, period.End, minutes})
		}
	}
	return table
}

func sortedDates(byDate map[string][]attendance.Period) []string {
	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

func formatMinutes(minutes int) string {
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}
