package profile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"goattend/attendance"
)

func newValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return clockPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	return validate
}

// Validate checks the structural invariants of a normalized profile and
// returns an *attendance.ValidationError listing every problem found.
func Validate(p WorkProfile) error {
	validate := newValidator()
	problems := make([]string, 0)

	if err := validate.Struct(p); err != nil {
		problems = append(problems, describeFieldErrors(err, "")...)
	}

	schedule := p.Schedule
	if len(schedule) == 0 && p.Legacy != nil {
		schedule = Normalize(p).Schedule
	}

	hasEnabledDay := false
	for _, weekday := range SortedWeekdays(schedule) {
		if weekday < 1 || weekday > 7 {
			problems = append(problems, fmt.Sprintf("schedule: weekday %d out of range 1..7", weekday))
			continue
		}
		day := schedule[weekday]
		if !day.Enabled {
			continue
		}
		hasEnabledDay = true
		problems = append(problems, validateDay(validate, weekday, day)...)
	}
	if !hasEnabledDay {
		problems = append(problems, "at least one weekday must be enabled")
	}

	if len(problems) == 0 {
		return nil
	}
	return &attendance.ValidationError{Problems: problems}
}

func validateDay(validate *validator.Validate, weekday int, day DaySchedule) []string {
	label := WeekdayName(weekday)
	if err := validate.Struct(day); err != nil {
		return describeFieldErrors(err, label+": ")
	}

	workStart, _ := ParseClock(day.WorkStart)
	workEnd, _ := ParseClock(day.WorkEnd)
	breakStart, _ := ParseClock(day.BreakStart)
	breakEnd, _ := ParseClock(day.BreakEnd)

	problems := make([]string, 0)
	if workStart >= workEnd {
		problems = append(problems, fmt.Sprintf("%s: work end must be after work start", label))
	}
	if breakStart >= breakEnd {
		problems = append(problems, fmt.Sprintf("%s: break end must be after break start", label))
	}
	if breakStart < workStart || breakEnd > workEnd {
		problems = append(problems, fmt.Sprintf("%s: break must lie within working hours", label))
	}
	return problems
}

func describeFieldErrors(err error, prefix string) []string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []string{prefix + err.Error()}
	}

	out := make([]string, 0, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		name := fieldLabel(fieldError.Field())
		switch fieldError.Tag() {
		case "required":
			out = append(out, fmt.Sprintf("%s%s is required", prefix, name))
		case "gt":
			out = append(out, fmt.Sprintf("%s%s must be greater than %s", prefix, name, fieldError.Param()))
		case "hostname_rfc1123":
			out = append(out, fmt.Sprintf("%s%s %q is not a valid host name", prefix, name, fieldError.Value()))
		case "timezone":
			out = append(out, fmt.Sprintf("%s%s %q is not a known IANA timezone", prefix, name, fieldError.Value()))
		case "clock":
			out = append(out, fmt.Sprintf("%s%s must be in HH:MM format", prefix, name))
		default:
			out = append(out, fmt.Sprintf("%s%s failed %q check", prefix, name, fieldError.Tag()))
		}
	}
	return out
}

func fieldLabel(field string) string {
	switch field {
	case "Instance":
		return "instance"
	case "EmployeeID":
		return "employee id"
	case "Timezone":
		return "timezone"
	case "WorkStart":
		return "work start"
	case "WorkEnd":
		return "work end"
	case "BreakStart":
		return "break start"
	case "BreakEnd":
		return "break end"
	default:
		return strings.ToLower(field)
	}
}
