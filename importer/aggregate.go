package importer

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"goattend/attendance"
)

// MicroGap is the smallest gap between two punches that becomes a break.
const MicroGap = time.Minute

// GroupByDate buckets punches by the calendar date of their start in loc.
// Punches inside each bucket are ordered by start.
func GroupByDate(punches []attendance.Punch, loc *time.Location) map[string][]attendance.Punch {
	if loc == nil {
		loc = time.UTC
	}
	grouped := make(map[string][]attendance.Punch)
	for _, punch := range punches {
		date := punch.Start.In(loc).Format(attendance.DateLayout)
		grouped[date] = append(grouped[date], punch)
	}
	for date := range grouped {
		day := grouped[date]
		sort.SliceStable(day, func(i, j int) bool {
			return day[i].Start.Before(day[j].Start)
		})
	}
	return grouped
}

// Aggregate turns punches into work/break periods per local date.
// Every punch yields a work period; a gap of at least MicroGap before the
// next punch of the same date yields a break in between.
func Aggregate(punches []attendance.Punch, loc *time.Location) map[string][]attendance.Period {
	if loc == nil {
		loc = time.UTC
	}
	result := make(map[string][]attendance.Period)
	for date, day := range GroupByDate(punches, loc) {
		result[date] = dayPeriods(day, loc)
	}
	return result
}

func dayPeriods(day []attendance.Punch, loc *time.Location) []attendance.Period {
	periods := make([]attendance.Period, 0, len(day)*2)
	for i, punch := range day {
		periods = append(periods, attendance.Period{
			ID:         uuid.New().String(),
			Start:      attendance.FormatWallClock(punch.Start, loc),
			End:        attendance.FormatWallClock(punch.End, loc),
			PeriodType: attendance.PeriodWork,
		})
		if i+1 == len(day) {
			continue
		}
		next := day[i+1]
		if next.Start.Sub(punch.End) < MicroGap {
			continue
		}
		periods = append(periods, attendance.Period{
			ID:         uuid.New().String(),
			Start:      attendance.FormatWallClock(punch.End, loc),
			End:        attendance.FormatWallClock(next.Start, loc),
			PeriodType: attendance.PeriodBreak,
		})
	}
	return periods
}

// Dates returns the keys of an aggregated map in ascending order.
func Dates[V any](byDate map[string]V) []string {
	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}
