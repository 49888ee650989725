package timeutil

import "time"

func StartOfDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}

// ISOWeekday maps Sunday to 7 and keeps Monday..Saturday as 1..6.
func ISOWeekday(value time.Time) int {
	weekday := int(value.Weekday())
	if weekday == 0 {
		return 7
	}
	return weekday
}

// MonthRange returns the first and last day of the month containing value.
func MonthRange(value time.Time) (time.Time, time.Time) {
	first := time.Date(value.Year(), value.Month(), 1, 0, 0, 0, 0, value.Location())
	last := first.AddDate(0, 1, -1)
	return first, last
}

func FormatDate(value time.Time) string {
	return value.Format("2006-01-02")
}

func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation("2006-01-02", value, loc)
}
