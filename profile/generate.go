package profile

import (
	"github.com/google/uuid"
	"goattend/attendance"
)

// GeneratePeriods expands the schedule entry of isoWeekday into the three
// periods work, break, work for date (YYYY-MM-DD). The schedule is assumed
// to be validated; an unknown weekday yields nil.
func GeneratePeriods(date string, p WorkProfile, isoWeekday int) []attendance.Period {
	day, ok := p.DayFor(isoWeekday)
	if !ok {
		return nil
	}

	at := func(clock string) string {
		return date + " " + clock + ":00"
	}

	return []attendance.Period{
		{
			ID:         uuid.New().String(),
			Start:      at(day.WorkStart),
			End:        at(day.BreakStart),
			PeriodType: attendance.PeriodWork,
		},
		{
			ID:         uuid.New().String(),
			Start:      at(day.BreakStart),
			End:        at(day.BreakEnd),
			PeriodType: attendance.PeriodBreak,
		},
		{
			ID:         uuid.New().String(),
			Start:      at(day.BreakEnd),
			End:        at(day.WorkEnd),
			PeriodType: attendance.PeriodWork,
		},
	}
}
