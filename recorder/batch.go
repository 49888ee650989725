package recorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"goattend/attendance"
	"goattend/internal/timeutil"
	"goattend/profile"
)

const DefaultDayDelay = time.Second

// ErrNoPeriods is the configuration error for a day without imported
// periods and without a profile to generate them from.
var ErrNoPeriods = errors.New("no periods available: day was not imported and no work profile is set")

// ProgressFunc is called after every day; index is 1-based.
type ProgressFunc func(index, total int, date string, success bool)

// Batch records days one after another with a fixed pause in between.
type Batch struct {
	Protocol *Protocol
	// Profile generates periods for days that carry none.
	Profile  *profile.WorkProfile
	DayDelay time.Duration
	Progress ProgressFunc
}

func (b *Batch) Run(ctx context.Context, days []attendance.RecordableDay) attendance.RecordingResult {
	result := attendance.RecordingResult{Details: make([]attendance.RecordingOutcome, 0, len(days))}
	delay := b.DayDelay
	if delay <= 0 {
		delay = DefaultDayDelay
	}

	for i, day := range days {
		if i > 0 {
			// a cancelled wait leaves the remaining days to fail below
			_ = b.Protocol.sleep(ctx, delay)
		}

		outcome := b.recordOne(ctx, day)
		result.Add(outcome)
		result.Total = result.Successful + result.Failed

		if b.Progress != nil {
			b.Progress(i+1, len(days), day.Date, outcome.Success)
		}
	}
	return result
}

func (b *Batch) recordOne(ctx context.Context, day attendance.RecordableDay) attendance.RecordingOutcome {
	if err := ctx.Err(); err != nil {
		return attendance.RecordingOutcome{Date: day.Date, Error: fmt.Sprintf("not attempted: %v", err)}
	}

	periods, err := b.resolvePeriods(day)
	if err != nil {
		b.Protocol.log().Errorw("day has no periods", "date", day.Date, "error", err)
		return attendance.RecordingOutcome{Date: day.Date, Error: err.Error()}
	}
	day.Periods = periods

	dayResult := b.Protocol.RecordDay(ctx, day)
	if dayResult.Err != nil {
		return attendance.RecordingOutcome{
			Date:     day.Date,
			Error:    dayResult.Err.Error(),
			Attempts: dayResult.Attempts,
		}
	}
	return attendance.RecordingOutcome{
		Date:     day.Date,
		Success:  true,
		Message:  fmt.Sprintf("recorded %d periods", len(periods)),
		Attempts: dayResult.Attempts,
	}
}

// resolvePeriods prefers periods carried by the day over generated ones.
func (b *Batch) resolvePeriods(day attendance.RecordableDay) ([]attendance.Period, error) {
	if len(day.Periods) > 0 {
		return day.Periods, nil
	}
	if b.Profile == nil {
		return nil, ErrNoPeriods
	}
	date, err := time.Parse(attendance.DateLayout, day.Date)
	if err != nil {
		return nil, fmt.Errorf("parse day %q: %w", day.Date, err)
	}
	periods := profile.GeneratePeriods(day.Date, *b.Profile, timeutil.ISOWeekday(date))
	if len(periods) == 0 {
		return nil, fmt.Errorf("no schedule for %s: %w", profile.WeekdayName(timeutil.ISOWeekday(date)), ErrNoPeriods)
	}
	return periods, nil
}
