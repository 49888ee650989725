package profile

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"goattend/attendance"
)

var clockPattern = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)

// DaySchedule is the work/break layout of one ISO weekday. Times are HH:MM.
type DaySchedule struct {
	Enabled    bool   `json:"enabled"`
	WorkStart  string `json:"work_start" validate:"clock"`
	WorkEnd    string `json:"work_end" validate:"clock"`
	BreakStart string `json:"break_start" validate:"clock"`
	BreakEnd   string `json:"break_end" validate:"clock"`
}

// LegacySchedule is the flat single-schedule shape of older profiles.
type LegacySchedule struct {
	WorkingDays []int  `json:"working_days"`
	WorkStart   string `json:"work_start"`
	WorkEnd     string `json:"work_end"`
	BreakStart  string `json:"break_start"`
	BreakEnd    string `json:"break_end"`
}

// WorkProfile identifies the remote account and the weekly schedule.
// Schedule is keyed by ISO weekday (1=Monday..7=Sunday).
type WorkProfile struct {
	Instance   string              `json:"instance" validate:"required,hostname_rfc1123"`
	EmployeeID int64               `json:"employee_id" validate:"gt=0"`
	Timezone   string              `json:"timezone" validate:"required,timezone"`
	Schedule   map[int]DaySchedule `json:"schedule"`
	Legacy     *LegacySchedule     `json:"legacy,omitempty"`
}

// Location loads the profile timezone.
func (p WorkProfile) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(strings.TrimSpace(p.Timezone))
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", p.Timezone, err)
	}
	return loc, nil
}

// DayFor resolves the per-weekday entry and falls back to the legacy flat schedule.
func (p WorkProfile) DayFor(isoWeekday int) (DaySchedule, bool) {
	if day, ok := p.Schedule[isoWeekday]; ok {
		return day, true
	}
	if p.Legacy == nil {
		return DaySchedule{}, false
	}
	return DaySchedule{
		Enabled:    containsDay(p.Legacy.WorkingDays, isoWeekday),
		WorkStart:  p.Legacy.WorkStart,
		WorkEnd:    p.Legacy.WorkEnd,
		BreakStart: p.Legacy.BreakStart,
		BreakEnd:   p.Legacy.BreakEnd,
	}, true
}

func (p WorkProfile) Enabled(isoWeekday int) bool {
	day, ok := p.DayFor(isoWeekday)
	return ok && day.Enabled
}

// EnabledWeekdays lists enabled ISO weekdays in ascending order.
func (p WorkProfile) EnabledWeekdays() []int {
	out := make([]int, 0, 7)
	for weekday := 1; weekday <= 7; weekday++ {
		if p.Enabled(weekday) {
			out = append(out, weekday)
		}
	}
	return out
}

// DefaultSchedule is Monday to Thursday 08:00-17:00 and a short Friday.
func DefaultSchedule() map[int]DaySchedule {
	schedule := make(map[int]DaySchedule, 7)
	for weekday := 1; weekday <= 7; weekday++ {
		day := DaySchedule{
			Enabled:    weekday <= 5,
			WorkStart:  "08:00",
			WorkEnd:    "17:00",
			BreakStart: "12:00",
			BreakEnd:   "13:00",
		}
		if weekday == 5 {
			day.WorkEnd = "13:00"
			day.BreakEnd = "12:30"
		}
		schedule[weekday] = day
	}
	return schedule
}

// Normalize folds a legacy flat schedule into the per-weekday map.
// A profile that already has a per-weekday schedule is returned as is.
func Normalize(p WorkProfile) WorkProfile {
	out := p
	if len(p.Schedule) > 0 {
		out.Schedule = make(map[int]DaySchedule, len(p.Schedule))
		for weekday, day := range p.Schedule {
			out.Schedule[weekday] = day
		}
		out.Legacy = nil
		return out
	}
	if p.Legacy == nil {
		return out
	}

	schedule := DefaultSchedule()
	for weekday := 1; weekday <= 7; weekday++ {
		day := schedule[weekday]
		day.Enabled = containsDay(p.Legacy.WorkingDays, weekday)
		day.WorkStart = firstNonEmpty(p.Legacy.WorkStart, day.WorkStart)
		day.WorkEnd = firstNonEmpty(p.Legacy.WorkEnd, day.WorkEnd)
		day.BreakStart = firstNonEmpty(p.Legacy.BreakStart, day.BreakStart)
		day.BreakEnd = firstNonEmpty(p.Legacy.BreakEnd, day.BreakEnd)
		schedule[weekday] = day
	}
	out.Schedule = schedule
	out.Legacy = nil
	return out
}

// ParseWeekday accepts 1..7 or an English weekday name or its three letter prefix.
func ParseWeekday(value string) (int, error) {
	key := strings.ToLower(strings.TrimSpace(value))
	if number, err := strconv.Atoi(key); err == nil {
		if number < 1 || number > 7 {
			return 0, fmt.Errorf("weekday %d out of range 1..7", number)
		}
		return number, nil
	}
	names := []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	for i, name := range names {
		if key == name || (len(key) == 3 && strings.HasPrefix(name, key)) {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", value)
}

func WeekdayName(isoWeekday int) string {
	if isoWeekday == 7 {
		return time.Sunday.String()
	}
	return time.Weekday(isoWeekday).String()
}

// ParseClock converts HH:MM into minutes since midnight.
func ParseClock(value string) (int, error) {
	value = strings.TrimSpace(value)
	if !clockPattern.MatchString(value) {
		return 0, &attendance.ParseError{Field: "clock time", Value: value, Err: fmt.Errorf("expected HH:MM")}
	}
	hours, _ := strconv.Atoi(value[:2])
	minutes, _ := strconv.Atoi(value[3:])
	return hours*60 + minutes, nil
}

// SortedWeekdays returns the schedule keys in ascending order.
func SortedWeekdays(schedule map[int]DaySchedule) []int {
	out := make([]int, 0, len(schedule))
	for weekday := range schedule {
		out = append(out, weekday)
	}
	sort.Ints(out)
	return out
}

func containsDay(days []int, weekday int) bool {
	for _, day := range days {
		if day == weekday {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
