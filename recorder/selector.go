package recorder

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"goattend/attendance"
	"goattend/internal/timeutil"
	"goattend/profile"
)

// SelectProfileDays returns the timecards that accept a generated schedule.
// Periods stay empty; the orchestrator generates them per day.
func SelectProfileDays(sheet attendance.Timesheet, p profile.WorkProfile) ([]attendance.RecordableDay, []attendance.Skip) {
	return selectDays(sheet, func(card attendance.Timecard, weekday int) (attendance.RecordableDay, *attendance.Skip) {
		if !p.Enabled(weekday) {
			return attendance.RecordableDay{}, &attendance.Skip{
				Date:   card.Date,
				Reason: attendance.SkipWeekdayDisabled,
				Detail: profile.WeekdayName(weekday),
			}
		}
		return recordableFrom(card, nil), nil
	}, nil)
}

// SelectImportDays returns the timecards whose date has imported periods.
// Imported dates that the timesheet does not contain are reported as skips.
func SelectImportDays(sheet attendance.Timesheet, imported map[string][]attendance.Period) ([]attendance.RecordableDay, []attendance.Skip) {
	days, skips := selectDays(sheet, func(card attendance.Timecard, _ int) (attendance.RecordableDay, *attendance.Skip) {
		periods, ok := imported[card.Date]
		if !ok {
			return attendance.RecordableDay{}, &attendance.Skip{Date: card.Date, Reason: attendance.SkipNotImported}
		}
		if len(periods) == 0 {
			return attendance.RecordableDay{}, &attendance.Skip{Date: card.Date, Reason: attendance.SkipNoPeriods}
		}
		return recordableFrom(card, periods), nil
	}, imported)
	return days, skips
}

type dayRule func(card attendance.Timecard, isoWeekday int) (attendance.RecordableDay, *attendance.Skip)

func selectDays(sheet attendance.Timesheet, rule dayRule, imported map[string][]attendance.Period) ([]attendance.RecordableDay, []attendance.Skip) {
	days := make([]attendance.RecordableDay, 0, len(sheet.Timecards))
	skips := make([]attendance.Skip, 0)
	seen := make(map[string]struct{}, len(sheet.Timecards))

	for _, card := range sheet.Timecards {
		if _, dup := seen[card.Date]; dup {
			skips = append(skips, attendance.Skip{Date: card.Date, Reason: attendance.SkipDuplicateTimecard})
			continue
		}
		seen[card.Date] = struct{}{}

		if skip := checkTimecard(card); skip != nil {
			skips = append(skips, *skip)
			continue
		}

		date, err := time.Parse(attendance.DateLayout, card.Date)
		if err != nil {
			skips = append(skips, attendance.Skip{Date: card.Date, Reason: attendance.SkipInvalidDate, Detail: err.Error()})
			continue
		}

		day, skip := rule(card, timeutil.ISOWeekday(date))
		if skip != nil {
			skips = append(skips, *skip)
			continue
		}
		days = append(days, day)
	}

	for _, date := range sortedKeys(imported) {
		if _, ok := seen[date]; !ok {
			skips = append(skips, attendance.Skip{Date: date, Reason: attendance.SkipNotInTimesheet})
		}
	}
	return days, skips
}

func checkTimecard(card attendance.Timecard) *attendance.Skip {
	switch {
	case card.State != attendance.StateTrackable:
		return &attendance.Skip{Date: card.Date, Reason: attendance.SkipNotTrackable, Detail: fmt.Sprintf("state %q", card.State)}
	case card.IsOffDay:
		return &attendance.Skip{Date: card.Date, Reason: attendance.SkipOffDay}
	case len(card.Periods) > 0:
		return &attendance.Skip{Date: card.Date, Reason: attendance.SkipHasPeriods, Detail: fmt.Sprintf("%d existing periods", len(card.Periods))}
	default:
		return nil
	}
}

func recordableFrom(card attendance.Timecard, periods []attendance.Period) attendance.RecordableDay {
	dayID := card.DayID
	if dayID == "" {
		dayID = uuid.New().String()
	}
	return attendance.RecordableDay{Date: card.Date, DayID: dayID, Periods: periods}
}

func sortedKeys(values map[string][]attendance.Period) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
