package attendance

import (
	"strings"
	"time"
)

const (
	// DateLayout is the remote day key format.
	DateLayout = "2006-01-02"
	// WallClockLayout is the day-local timestamp format of validate requests.
	WallClockLayout = "2006-01-02 15:04:05"
	// ISOLayout is the day-local timestamp format of commit requests.
	ISOLayout = "2006-01-02T15:04:05"

	// StateTrackable is the only timecard state that accepts new periods.
	StateTrackable = "trackable"
)

type PeriodType string

const (
	PeriodWork  PeriodType = "work"
	PeriodBreak PeriodType = "break"
)

// Period is one work or break interval in remote wall-clock format.
type Period struct {
	ID         string     `json:"attendance_period_id"`
	Start      string     `json:"start"`
	End        string     `json:"end"`
	PeriodType PeriodType `json:"period_type"`
	Comment    *string    `json:"comment"`
	ProjectID  *int64     `json:"project_id"`
}

// ISOStart returns Start with a T separator between date and time.
func (p Period) ISOStart() string {
	return ToISO(p.Start)
}

func (p Period) ISOEnd() string {
	return ToISO(p.End)
}

// Duration parses both boundaries as wall-clock values of the same zone.
func (p Period) Duration() (time.Duration, error) {
	start, err := time.Parse(WallClockLayout, p.Start)
	if err != nil {
		return 0, err
	}
	end, err := time.Parse(WallClockLayout, p.End)
	if err != nil {
		return 0, err
	}
	return end.Sub(start), nil
}

func ToISO(wallClock string) string {
	return strings.Replace(wallClock, " ", "T", 1)
}

// FormatWallClock renders value in loc with the seconds field forced to zero.
func FormatWallClock(value time.Time, loc *time.Location) string {
	return value.In(loc).Format("2006-01-02 15:04") + ":00"
}

// TimecardPeriod is a period already stored remotely.
type TimecardPeriod struct {
	ID         string     `json:"id"`
	Start      string     `json:"start"`
	End        string     `json:"end"`
	PeriodType PeriodType `json:"period_type"`
}

// Timecard is the remote per-day attendance record.
type Timecard struct {
	Date     string           `json:"date"`
	State    string           `json:"state"`
	IsOffDay bool             `json:"is_off_day"`
	Periods  []TimecardPeriod `json:"periods"`
	DayID    string           `json:"day_id"`
}

func (c Timecard) Day() (time.Time, error) {
	return time.Parse(DateLayout, c.Date)
}

type Timesheet struct {
	Timecards []Timecard `json:"timecards"`
}

// RecordableDay is one day that passed all eligibility checks.
// Periods is empty when the day is recorded from the work profile.
type RecordableDay struct {
	Date    string
	DayID   string
	Periods []Period
}

type SkipReason string

const (
	SkipNotTrackable      SkipReason = "not trackable"
	SkipOffDay            SkipReason = "off day"
	SkipHasPeriods        SkipReason = "already recorded"
	SkipWeekdayDisabled   SkipReason = "weekday disabled"
	SkipNotImported       SkipReason = "not in import"
	SkipNotInTimesheet    SkipReason = "not in timesheet"
	SkipNoPeriods         SkipReason = "no periods"
	SkipInvalidDate       SkipReason = "invalid date"
	SkipDuplicateTimecard SkipReason = "duplicate timecard"
)

// Skip explains why a timecard or imported date is not recorded.
type Skip struct {
	Date   string
	Reason SkipReason
	Detail string
}

// RecordingOutcome is the result of one attempted day.
type RecordingOutcome struct {
	Date     string `json:"date"`
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
	Attempts int    `json:"attempts"`
}

// RecordingResult aggregates all outcomes of one batch.
type RecordingResult struct {
	Total      int                `json:"total"`
	Successful int                `json:"successful"`
	Failed     int                `json:"failed"`
	Details    []RecordingOutcome `json:"details"`
}

func (r *RecordingResult) Add(outcome RecordingOutcome) {
	r.Details = append(r.Details, outcome)
	if outcome.Success {
		r.Successful++
		return
	}
	r.Failed++
}

// Punch is one raw clock-in/clock-out pair in absolute time.
type Punch struct {
	ID         int64
	Start      time.Time
	End        time.Time
	SourceFile string
}
