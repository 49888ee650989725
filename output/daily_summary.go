package output

import (
	"strconv"
	"strings"

	"goattend/attendance"
)

type DailySummary struct {
	Date          string
	Start         string
	End           string
	WorkedMinutes int
	BreakMinutes  int
	PeriodCount   int
}

// BuildDailySummaries totals work and break minutes per date.
// Periods with unparseable boundaries are counted but add no time.
func BuildDailySummaries(byDate map[string][]attendance.Period) []DailySummary {
	summaries := make([]DailySummary, 0, len(byDate))
	for _, date := range sortedDates(byDate) {
		summaries = append(summaries, summarizeDay(date, byDate[date]))
	}
	return summaries
}

func summarizeDay(date string, periods []attendance.Period) DailySummary {
	summary := DailySummary{Date: date, PeriodCount: len(periods)}
	for _, period := range periods {
		if summary.Start == "" || period.Start < summary.Start {
			summary.Start = period.Start
		}
		if period.End > summary.End {
			summary.End = period.End
		}

		duration, err := period.Duration()
		if err != nil || duration < 0 {
			continue
		}
		switch period.PeriodType {
		case attendance.PeriodWork:
			summary.WorkedMinutes += int(duration.Minutes())
		case attendance.PeriodBreak:
			summary.BreakMinutes += int(duration.Minutes())
		}
	}
	return summary
}

func DailySummaryTable(summaries []DailySummary) Table {
	table := Table{Headers: []string{"Date", "StartTime", "EndTime", "Worked", "Break", "Periods"}}
	for _, summary := range summaries {
		table.Rows = append(table.Rows, []string{
			summary.Date,
			clockOf(summary.Start),
			clockOf(summary.End),
			formatMinutes(summary.WorkedMinutes),
			formatMinutes(summary.BreakMinutes),
			strconv.Itoa(summary.PeriodCount),
		})
	}
	return table
}

// clockOf returns HH:MM of a "YYYY-MM-DD HH:MM:SS" value.
func clockOf(wallClock string) string {
	_, clock, ok := strings.Cut(wallClock, " ")
	if !ok || len(clock) < 5 {
		return wallClock
	}
	return clock[:5]
}
